package game

import (
	"fmt"
	"math/rand"
)

// CatalogSize is the number of images in the static card catalog.
const CatalogSize = 372

const catalogURL = "https://raw.githubusercontent.com/jminuscula/dixit-online/master/cards/card_%05d.jpg"

// Card is a single picture card. ImageID addresses the static image catalog;
// ID is the per-game randomized identifier that players act on, so that an id
// seen in one game reveals nothing about the image in the next. Identity is
// the (ImageID, ID) pair and never changes after creation.
type Card struct {
	ImageID int `json:"imageId"`
	ID      int `json:"id"`
}

// URL returns the catalog address of the card's image.
func (c Card) URL() string {
	return fmt.Sprintf(catalogURL, c.ImageID)
}

// newDeck builds a deck of n cards with freshly randomized ids: the id
// assignment is a shuffled permutation of 1..n, and the resulting deck is
// shuffled once more so dealing order is independent of id assignment.
func newDeck(n int) []Card {
	ids := rand.Perm(n)
	deck := make([]Card, n)
	for i := range deck {
		deck[i] = Card{ImageID: i + 1, ID: ids[i] + 1}
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
