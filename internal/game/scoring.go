package game

import "sort"

// ScoreEntry is one scoreboard row. Entries are ordered by cumulative score
// descending; ties keep seating order.
type ScoreEntry struct {
	Player PlayerInfo `json:"player"`
	Total  int        `json:"total"`
	Delta  int        `json:"delta"`
}

// countPoints runs the point-attribution pass over the completed vote map.
//
// The hint is "good" exactly when at least one but not all voters found the
// storyteller's card; both boundaries are exclusive, and moving either one
// silently changes game balance. The storyteller earns 3 only on a good hint.
// A voter earns 3 for finding the storyteller's card under a good hint, or a
// flat 2 when the hint was not good. Every vote a non-storyteller card
// receives earns its owner 2, regardless of how the storyteller fared.
func (g *DixitGame) countPoints() {
	st := g.storyteller.ID()

	voteCount := make(map[int64]int)
	for _, ownerID := range g.votes {
		voteCount[ownerID]++
	}
	total := len(g.votes)
	goodHint := voteCount[st] > 0 && voteCount[st] < total

	delta := make(map[int64]int, len(g.players))
	for _, p := range g.players {
		delta[p.ID()] = 0
	}
	if goodHint {
		delta[st] = 3
	}
	for voterID, ownerID := range g.votes {
		if goodHint {
			if ownerID == st {
				delta[voterID] += 3
			}
		} else {
			delta[voterID] += 2
		}
		if ownerID != st {
			delta[ownerID] += 2
		}
	}

	g.deltaScore = delta
	for id, d := range delta {
		g.score[id] += d
	}
}

// scoreBoard builds the presentation-ordered scoreboard. Callers must hold
// the session mutex.
func (g *DixitGame) scoreBoard() []ScoreEntry {
	board := make([]ScoreEntry, 0, len(g.players))
	for _, p := range g.players {
		board = append(board, ScoreEntry{
			Player: PlayerInfo{ID: p.ID(), Name: p.Name()},
			Total:  g.score[p.ID()],
			Delta:  g.deltaScore[p.ID()],
		})
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Total > board[j].Total
	})
	return board
}

// ScoreBoard returns the scoreboard ordered for presentation.
func (g *DixitGame) ScoreBoard() []ScoreEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scoreBoard()
}
