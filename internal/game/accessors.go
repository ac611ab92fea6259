package game

import (
	"fmt"

	"github.com/google/uuid"
)

// Read accessors for the transport layer. Each takes the session mutex, so
// the returned values are consistent snapshots.

func (g *DixitGame) GameID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameID
}

func (g *DixitGame) Stage() Stage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stage
}

func (g *DixitGame) Clue() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clue
}

func (g *DixitGame) RoundNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roundNumber
}

func (g *DixitGame) GameNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameNumber
}

// Master returns the session owner, if any player has joined yet.
func (g *DixitGame) Master() (PlayerInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.master == nil {
		return PlayerInfo{}, false
	}
	return PlayerInfo{ID: g.master.ID(), Name: g.master.Name()}, true
}

// Storyteller returns the current storyteller, if a round is underway.
func (g *DixitGame) Storyteller() (PlayerInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.storyteller == nil {
		return PlayerInfo{}, false
	}
	return PlayerInfo{ID: g.storyteller.ID(), Name: g.storyteller.Name()}, true
}

// Players lists the seated players in rotation order.
func (g *DixitGame) Players() []PlayerInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PlayerInfo, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, PlayerInfo{ID: p.ID(), Name: p.Name()})
	}
	return out
}

// Waiting lists the players held in the lobby until the next round boundary.
func (g *DixitGame) Waiting() []PlayerInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PlayerInfo, 0, len(g.lobby))
	for _, p := range g.lobby {
		out = append(out, PlayerInfo{ID: p.ID(), Name: p.Name()})
	}
	return out
}

func (g *DixitGame) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *DixitGame) TableCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.table)
}

func (g *DixitGame) VoteCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.votes)
}

// MaxPlayers is the seat limit the deck can supply full hands for.
func (g *DixitGame) MaxPlayers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxPlayers()
}

// Hand returns a copy of the player's current hand, for the transport's
// inline card menus.
func (g *DixitGame) Hand(playerID int64) ([]Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.player(playerID)
	if p == nil {
		return nil, fmt.Errorf("user %d: %w", playerID, ErrPlayerNotFound)
	}
	return append([]Card(nil), p.Hand...), nil
}

// TableCards returns this round's played cards in presentation order. Before
// the table completes the order is not yet fixed and the result is empty.
func (g *DixitGame) TableCards() []Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Card, 0, len(g.tableOrder))
	for _, id := range g.tableOrder {
		out = append(out, g.table[id])
	}
	return out
}
