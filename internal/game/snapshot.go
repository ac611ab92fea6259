package game

import (
	"fmt"

	"github.com/google/uuid"
)

// Snapshot is the flat, re-hydratable form of a session, everything the
// persistence layer needs to bring a game back. Enums serialize by name,
// players by their user identity, and the master/storyteller fields hold user
// ids that RestoreGame resolves against the player list again.
type Snapshot struct {
	GameID             string          `json:"gameId"`
	Stage              Stage           `json:"stage"`
	Players            []Player        `json:"players"`
	Lobby              []Player        `json:"lobby,omitempty"`
	MasterID           int64           `json:"masterId,omitempty"`
	StorytellerID      int64           `json:"storytellerId,omitempty"`
	Clue               string          `json:"clue,omitempty"`
	Table              map[int64]Card  `json:"table,omitempty"`
	TableOrder         []int64         `json:"tableOrder,omitempty"`
	Votes              map[int64]int64 `json:"votes,omitempty"`
	Cards              []Card          `json:"cards"`
	DrawPile           []Card          `json:"drawPile"` // null means not yet dealt
	DiscardPile        []Card          `json:"discardPile,omitempty"`
	Score              map[int64]int   `json:"score,omitempty"`
	DeltaScore         map[int64]int   `json:"deltaScore,omitempty"`
	RoundNumber        int             `json:"roundNumber"`
	GameNumber         int             `json:"gameNumber"`
	CardsPerPlayer     int             `json:"cardsPerPlayer"`
	EndCriterion       EndCriterion    `json:"endCriterion"`
	EndCriterionNumber int             `json:"endCriterionNumber,omitempty"`
}

// Snapshot captures the full session state as detached copies.
func (g *DixitGame) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		GameID:             g.gameID.String(),
		Stage:              g.stage,
		Players:            copyPlayers(g.players),
		Lobby:              copyPlayers(g.lobby),
		Clue:               g.clue,
		Table:              copyCardMap(g.table),
		TableOrder:         append([]int64(nil), g.tableOrder...),
		Votes:              copyVoteMap(g.votes),
		Cards:              append([]Card(nil), g.cards...),
		DiscardPile:        append([]Card(nil), g.discardPile...),
		Score:              copyIntMap(g.score),
		DeltaScore:         copyIntMap(g.deltaScore),
		RoundNumber:        g.roundNumber,
		GameNumber:         g.gameNumber,
		CardsPerPlayer:     g.cardsPerPlayer,
		EndCriterion:       g.endCriterion,
		EndCriterionNumber: g.endCriterionNumber,
	}
	if g.drawPile != nil {
		s.DrawPile = append([]Card{}, g.drawPile...)
	}
	if g.master != nil {
		s.MasterID = g.master.ID()
	}
	if g.storyteller != nil {
		s.StorytellerID = g.storyteller.ID()
	}
	return s
}

// RestoreGame rebuilds a session from a snapshot, validating the enums and
// re-resolving the master and storyteller references against the player list.
func RestoreGame(s Snapshot) (*DixitGame, error) {
	stage, err := ParseStage(string(s.Stage))
	if err != nil {
		return nil, err
	}
	criterion, err := ParseEndCriterion(string(s.EndCriterion))
	if err != nil {
		return nil, err
	}
	gameID, err := uuid.Parse(s.GameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game id %q: %v", s.GameID, err)
	}

	g := &DixitGame{
		gameID:             gameID,
		stage:              stage,
		clue:               s.Clue,
		table:              copyCardMap(s.Table),
		tableOrder:         append([]int64(nil), s.TableOrder...),
		votes:              copyVoteMap(s.Votes),
		cards:              append([]Card(nil), s.Cards...),
		discardPile:        append([]Card(nil), s.DiscardPile...),
		score:              copyIntMap(s.Score),
		deltaScore:         copyIntMap(s.DeltaScore),
		roundNumber:        s.RoundNumber,
		gameNumber:         s.GameNumber,
		cardsPerPlayer:     s.CardsPerPlayer,
		endCriterion:       criterion,
		endCriterionNumber: s.EndCriterionNumber,
	}
	if g.table == nil {
		g.table = make(map[int64]Card)
	}
	if g.votes == nil {
		g.votes = make(map[int64]int64)
	}
	if g.score == nil {
		g.score = make(map[int64]int)
	}
	if g.deltaScore == nil {
		g.deltaScore = make(map[int64]int)
	}
	if g.cardsPerPlayer == 0 {
		g.cardsPerPlayer = DefaultCardsPerPlayer
	}
	if s.DrawPile != nil {
		g.drawPile = append([]Card{}, s.DrawPile...)
	}
	for i := range s.Players {
		p := s.Players[i]
		p.Hand = append([]Card(nil), p.Hand...)
		g.players = append(g.players, &p)
	}
	for i := range s.Lobby {
		p := s.Lobby[i]
		p.Hand = append([]Card(nil), p.Hand...)
		g.lobby = append(g.lobby, &p)
	}

	if s.MasterID != 0 {
		if g.master = g.member(s.MasterID); g.master == nil {
			return nil, fmt.Errorf("master %d: %w", s.MasterID, ErrPlayerNotFound)
		}
	}
	if s.StorytellerID != 0 {
		// The storyteller must be a seated player, never a lobby member.
		if g.storyteller = g.player(s.StorytellerID); g.storyteller == nil {
			return nil, fmt.Errorf("storyteller %d: %w", s.StorytellerID, ErrPlayerNotFound)
		}
	}
	// Any stage past the initial lobby has a round underway, and scoring
	// dereferences the storyteller unconditionally.
	if g.storyteller == nil && stage != StageLobby {
		return nil, fmt.Errorf("stage %s without a storyteller: %w", stage, ErrPlayerNotFound)
	}
	return g, nil
}

func (g *DixitGame) member(id int64) *Player {
	if p := g.player(id); p != nil {
		return p
	}
	for _, p := range g.lobby {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

func copyPlayers(ps []*Player) []Player {
	if ps == nil {
		return nil
	}
	out := make([]Player, 0, len(ps))
	for _, p := range ps {
		out = append(out, Player{User: p.User, Hand: append([]Card(nil), p.Hand...)})
	}
	return out
}

func copyCardMap(m map[int64]Card) map[int64]Card {
	if m == nil {
		return nil
	}
	out := make(map[int64]Card, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyVoteMap(m map[int64]int64) map[int64]int64 {
	if m == nil {
		return nil
	}
	out := make(map[int64]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[int64]int) map[int64]int {
	if m == nil {
		return nil
	}
	out := make(map[int64]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
