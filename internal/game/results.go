package game

import "github.com/google/uuid"

// PlayerInfo is a detached player reference, safe to hold after the session's
// round state has been cleared.
type PlayerInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Results is the finalized record of one scored round, handed to the results
// renderer. It is a snapshot: housekeeping clears the table, votes and clue
// right after, so nothing here aliases live session state.
type Results struct {
	GameID      uuid.UUID       `json:"gameId"`
	GameNumber  int             `json:"gameNumber"`
	RoundNumber int             `json:"roundNumber"`
	Players     []PlayerInfo    `json:"players"` // seating order
	Storyteller PlayerInfo      `json:"storyteller"`
	Clue        string          `json:"clue"`
	Table       map[int64]Card  `json:"table"`      // owner id -> card
	TableOrder  []int64         `json:"tableOrder"` // presentation order
	Votes       map[int64]int64 `json:"votes"`      // voter id -> owner id
	Score       []ScoreEntry    `json:"score"`      // ordered by total descending
}

// snapshotResults deep-copies the round state. Callers must hold the session
// mutex and have run countPoints first.
func (g *DixitGame) snapshotResults() *Results {
	res := &Results{
		GameID:      g.gameID,
		GameNumber:  g.gameNumber,
		RoundNumber: g.roundNumber,
		Players:     make([]PlayerInfo, 0, len(g.players)),
		Storyteller: PlayerInfo{ID: g.storyteller.ID(), Name: g.storyteller.Name()},
		Clue:        g.clue,
		Table:       make(map[int64]Card, len(g.table)),
		TableOrder:  append([]int64(nil), g.tableOrder...),
		Votes:       make(map[int64]int64, len(g.votes)),
		Score:       g.scoreBoard(),
	}
	for _, p := range g.players {
		res.Players = append(res.Players, PlayerInfo{ID: p.ID(), Name: p.Name()})
	}
	for id, c := range g.table {
		res.Table[id] = c
	}
	for voter, owner := range g.votes {
		res.Votes[voter] = owner
	}
	return res
}

// LastResults returns the snapshot of the most recently scored round, or nil
// before any round has completed.
func (g *DixitGame) LastResults() *Results {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastResults
}
