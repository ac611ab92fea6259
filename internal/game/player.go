package game

import "strings"

// User is the stable chat identity handed in by the transport layer. Only the
// numeric id identifies a user; the name parts are display-only.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
}

// DisplayName joins the non-empty name parts.
func (u User) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.FirstName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Player is a session member. Two players are the same player exactly when
// their user ids match. The hand is mutated only by the card supply and holds
// at most cardsPerPlayer cards.
type Player struct {
	User User   `json:"user"`
	Hand []Card `json:"hand"`
}

func newPlayer(u User) *Player {
	return &Player{User: u}
}

// ID returns the stable user id identifying this player.
func (p *Player) ID() int64 { return p.User.ID }

// Name returns the player's display name.
func (p *Player) Name() string { return p.User.DisplayName() }

func (p *Player) holds(c Card) bool {
	for _, h := range p.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// cardByID finds a card in the player's hand by its per-game id.
func (p *Player) cardByID(id int) (Card, bool) {
	for _, h := range p.Hand {
		if h.ID == id {
			return h, true
		}
	}
	return Card{}, false
}

// removeCard takes c out of the hand, reporting whether it was there.
func (p *Player) removeCard(c Card) bool {
	for i, h := range p.Hand {
		if h == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
