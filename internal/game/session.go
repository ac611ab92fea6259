package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCardsPerPlayer matches the physical game.
const DefaultCardsPerPlayer = 6

// DixitGame is one game session. All mutating operations are serialized by
// the session mutex; independent sessions share no state.
//
// The turn cycle is Lobby -> Storyteller -> Players -> Vote -> Lobby. The end
// of the game is not a fifth stage: HasEnded is a predicate callers check
// after each completed round.
type DixitGame struct {
	mu sync.Mutex

	gameID uuid.UUID

	stage       Stage
	players     []*Player // insertion order is rotation order
	lobby       []*Player // joined mid-round, admitted at the next boundary
	master      *Player
	storyteller *Player

	clue       string
	table      map[int64]Card // owner id -> card played this round
	tableOrder []int64        // presentation order, reshuffled when the table completes
	votes      map[int64]int64 // voter id -> owner id the voter believes matches the clue

	cards       []Card // the full immutable deck for this game
	drawPile    []Card // nil until the first deal
	discardPile []Card

	score      map[int64]int
	deltaScore map[int64]int

	roundNumber int
	gameNumber  int

	cardsPerPlayer int

	endCriterion       EndCriterion
	endCriterionNumber int

	lastResults *Results
}

// NewGame creates an empty session in the lobby stage with a freshly
// randomized deck.
func NewGame(criterion EndCriterion, threshold int) *DixitGame {
	return &DixitGame{
		gameID:             uuid.New(),
		stage:              StageLobby,
		table:              make(map[int64]Card),
		votes:              make(map[int64]int64),
		cards:              newDeck(CatalogSize),
		score:              make(map[int64]int),
		deltaScore:         make(map[int64]int),
		gameNumber:         1,
		cardsPerPlayer:     DefaultCardsPerPlayer,
		endCriterion:       criterion,
		endCriterionNumber: threshold,
	}
}

func (g *DixitGame) maxPlayers() int {
	return len(g.cards) / g.cardsPerPlayer
}

func (g *DixitGame) player(id int64) *Player {
	for _, p := range g.players {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

func (g *DixitGame) isMember(id int64) bool {
	if g.player(id) != nil {
		return true
	}
	for _, p := range g.lobby {
		if p.ID() == id {
			return true
		}
	}
	return false
}

// AddPlayer wraps the identity into a fresh player and seats them according
// to the current stage. It is legal in every stage and never transitions the
// stage itself. The returned Placement tells the caller what happened.
func (g *DixitGame) AddPlayer(u User) (Placement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isMember(u.ID) {
		return "", fmt.Errorf("user %d: %w", u.ID, ErrAlreadyInGame)
	}
	if len(g.players) >= g.maxPlayers() {
		return "", fmt.Errorf("the deck supplies at most %d players: %w", g.maxPlayers(), ErrTooManyPlayers)
	}

	p := newPlayer(u)
	if g.master == nil {
		g.master = p
	}

	switch g.stage {
	case StageLobby:
		if g.roundNumber > 0 {
			// Between rounds the previous deal is still settling; the
			// newcomer is admitted when the next round opens.
			g.lobby = append(g.lobby, p)
			return PlacedWaitingRound, nil
		}
		g.players = append(g.players, p)
		return PlacedSeated, nil
	case StageStoryteller, StagePlayers:
		if len(g.draw()) < g.cardsPerPlayer {
			g.lobby = append(g.lobby, p)
			return PlacedWaitingCards, nil
		}
		g.players = append(g.players, p)
		if err := g.refillHand(p, false); err != nil {
			return "", err
		}
		return PlacedSeatedDealt, nil
	default: // StageVote: roster changes mid-vote would corrupt scoring
		g.lobby = append(g.lobby, p)
		return PlacedWaitingVote, nil
	}
}

// draw returns the live draw pile, lazily initializing it as a copy of the
// deck. The deck is already shuffled at creation, so the copy needs no
// further shuffling.
func (g *DixitGame) draw() []Card {
	if g.drawPile == nil {
		g.drawPile = make([]Card, len(g.cards))
		copy(g.drawPile, g.cards)
	}
	return g.drawPile
}

func (g *DixitGame) pop() (Card, error) {
	pile := g.draw()
	if len(pile) == 0 {
		return Card{}, ErrNoCards
	}
	c := pile[len(pile)-1]
	g.drawPile = pile[:len(pile)-1]
	return c, nil
}

// refillHand tops the player's hand up to cardsPerPlayer. With strict set it
// additionally asserts the player is missing exactly one card, the expected
// state after a normal round.
func (g *DixitGame) refillHand(p *Player, strict bool) error {
	need := g.cardsPerPlayer - len(p.Hand)
	if need < 0 {
		return fmt.Errorf("player %d holds %d cards: %w", p.ID(), len(p.Hand), ErrHand)
	}
	if strict && need != 1 {
		return fmt.Errorf("player %d is missing %d cards, expected 1: %w", p.ID(), need, ErrHand)
	}
	for i := 0; i < need; i++ {
		c, err := g.pop()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, c)
	}
	return nil
}

// recycleIfNeeded folds the discard pile back into the draw pile when the
// draw pile cannot cover every refill due this round. Checked once per round
// boundary, so a partial shortfall still triggers a full recycle.
func (g *DixitGame) recycleIfNeeded() {
	need := 0
	for _, p := range g.players {
		need += g.cardsPerPlayer - len(p.Hand)
	}
	if len(g.draw()) >= need {
		return
	}
	g.drawPile = append(g.drawPile, g.discardPile...)
	rand.Shuffle(len(g.drawPile), func(i, j int) {
		g.drawPile[i], g.drawPile[j] = g.drawPile[j], g.drawPile[i]
	})
	g.discardPile = nil
}

// StartGame deals every player a full hand, picks a uniformly random
// storyteller and opens round one. Only the master may start, and only from
// the lobby stage.
func (g *DixitGame) StartGame(requesterID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.master == nil || requesterID != g.master.ID() {
		return fmt.Errorf("user %d: %w", requesterID, ErrNotMaster)
	}
	if g.stage != StageLobby {
		return fmt.Errorf("stage is %s: %w", g.stage, ErrGameAlreadyStarted)
	}
	g.recycleIfNeeded()
	for _, p := range g.players {
		if err := g.refillHand(p, false); err != nil {
			return err
		}
	}
	g.storyteller = g.players[rand.Intn(len(g.players))]
	g.roundNumber = 1
	g.stage = StageStoryteller
	return nil
}

// StorytellerTurn records the clue and places the storyteller's card on the
// table, advancing to the Players stage.
func (g *DixitGame) StorytellerTurn(playerID int64, cardID int, clue string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stage != StageStoryteller {
		return fmt.Errorf("stage is %s: %w", g.stage, ErrWrongStage)
	}
	p := g.player(playerID)
	if p == nil {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerNotFound)
	}
	if p != g.storyteller {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerNotStoryteller)
	}
	if strings.TrimSpace(clue) == "" {
		return ErrClueNotGiven
	}
	card, ok := p.cardByID(cardID)
	if !ok {
		return fmt.Errorf("card %d: %w", cardID, ErrCardNotFound)
	}
	g.clue = clue
	g.table[p.ID()] = card
	g.stage = StagePlayers
	return nil
}

// PlayerTurn places (or replaces, while the stage lasts) the player's card on
// the table. Once every player has played, the played cards leave their
// owners' hands, the table presentation order is reshuffled so position
// reveals nothing about authorship, and the stage advances to Vote.
func (g *DixitGame) PlayerTurn(playerID int64, cardID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stage != StagePlayers {
		return fmt.Errorf("stage is %s: %w", g.stage, ErrWrongStage)
	}
	p := g.player(playerID)
	if p == nil {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerNotFound)
	}
	if p == g.storyteller {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerIsStoryteller)
	}
	card, ok := p.cardByID(cardID)
	if !ok {
		return fmt.Errorf("card %d: %w", cardID, ErrCardNotFound)
	}
	g.table[p.ID()] = card

	if len(g.table) == len(g.players) {
		g.completeTable()
	}
	return nil
}

func (g *DixitGame) completeTable() {
	for id, c := range g.table {
		if owner := g.player(id); owner != nil {
			owner.removeCard(c)
		}
	}
	g.tableOrder = make([]int64, 0, len(g.table))
	for id := range g.table {
		g.tableOrder = append(g.tableOrder, id)
	}
	rand.Shuffle(len(g.tableOrder), func(i, j int) {
		g.tableOrder[i], g.tableOrder[j] = g.tableOrder[j], g.tableOrder[i]
	})
	g.stage = StageVote
}

// VotingTurn records the voter's guess of who owns the card they found most
// fitting. When the last eligible vote arrives the round is scored, a results
// snapshot is taken and the stage returns to Lobby.
func (g *DixitGame) VotingTurn(playerID int64, cardID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stage != StageVote {
		return fmt.Errorf("stage is %s: %w", g.stage, ErrWrongStage)
	}
	p := g.player(playerID)
	if p == nil {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerNotFound)
	}
	if p == g.storyteller {
		return fmt.Errorf("user %d: %w", playerID, ErrPlayerIsStoryteller)
	}
	ownerID, ok := g.tableOwner(cardID)
	if !ok {
		return fmt.Errorf("card %d: %w", cardID, ErrCardHasNoSender)
	}
	if ownerID == playerID {
		return fmt.Errorf("user %d: %w", playerID, ErrSelfVote)
	}
	g.votes[playerID] = ownerID

	if len(g.votes) == len(g.players)-1 {
		g.countPoints()
		g.lastResults = g.snapshotResults()
		g.stage = StageLobby
	}
	return nil
}

func (g *DixitGame) tableOwner(cardID int) (int64, bool) {
	for id, c := range g.table {
		if c.ID == cardID {
			return id, true
		}
	}
	return 0, false
}

// NewRound rotates the storyteller, admits everyone waiting in the lobby,
// discards the finished table, refills hands (recycling the discard pile
// first if the draw pile runs short) and opens the next round.
func (g *DixitGame) NewRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stage != StageLobby || g.roundNumber == 0 {
		return fmt.Errorf("stage is %s: %w", g.stage, ErrWrongStage)
	}

	for _, c := range g.table {
		g.discardPile = append(g.discardPile, c)
	}
	g.table = make(map[int64]Card)
	g.tableOrder = nil
	g.votes = make(map[int64]int64)
	g.clue = ""

	g.rotateStoryteller()

	admitted := make(map[int64]bool, len(g.lobby))
	for _, p := range g.lobby {
		g.players = append(g.players, p)
		admitted[p.ID()] = true
	}
	g.lobby = nil

	g.recycleIfNeeded()
	for _, p := range g.players {
		if err := g.refillHand(p, !admitted[p.ID()]); err != nil {
			return err
		}
	}

	g.roundNumber++
	g.stage = StageStoryteller
	return nil
}

func (g *DixitGame) rotateStoryteller() {
	if len(g.players) == 0 {
		return
	}
	next := 0
	for i, p := range g.players {
		if p == g.storyteller {
			next = (i + 1) % len(g.players)
			break
		}
	}
	g.storyteller = g.players[next]
}

// RestartGame keeps the roster (admitting anyone still waiting) but starts a
// brand new game: fresh deck with re-randomized card ids, cleared piles and
// scores, new per-game id, random storyteller.
func (g *DixitGame) RestartGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.players = append(g.players, g.lobby...)
	g.lobby = nil
	if len(g.players) == 0 {
		return ErrPlayerNotFound
	}

	g.gameID = uuid.New()
	g.gameNumber++
	g.cards = newDeck(CatalogSize)
	g.drawPile = nil
	g.discardPile = nil
	g.table = make(map[int64]Card)
	g.tableOrder = nil
	g.votes = make(map[int64]int64)
	g.clue = ""
	g.score = make(map[int64]int)
	g.deltaScore = make(map[int64]int)
	g.lastResults = nil

	for _, p := range g.players {
		p.Hand = nil
	}
	for _, p := range g.players {
		if err := g.refillHand(p, false); err != nil {
			return err
		}
	}
	g.storyteller = g.players[rand.Intn(len(g.players))]
	g.roundNumber = 1
	g.stage = StageStoryteller
	return nil
}

// HasEnded evaluates the session's end criterion. Meaningful right after a
// round has been scored, but safe to call at any time.
func (g *DixitGame) HasEnded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasEnded()
}

func (g *DixitGame) hasEnded() bool {
	switch g.endCriterion {
	case EndLastCard:
		// Compares against the full deck size, not the live piles: the game
		// ends once the supply is provably insufficient for another complete
		// deal, even though recycling could stretch it further.
		return len(g.cards) < len(g.players)*g.cardsPerPlayer
	case EndPoints:
		for _, pts := range g.score {
			if pts >= g.endCriterionNumber {
				return true
			}
		}
		return false
	case EndRounds:
		return g.roundNumber >= g.endCriterionNumber
	default:
		return false
	}
}
