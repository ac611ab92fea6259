package game

import (
	"fmt"
	"sync"
)

// GameManager holds the active sessions, one per chat, plus the user -> chat
// index the transport consults to route inline queries. Session state itself
// is guarded by each session's own mutex; the manager only guards the maps.
type GameManager struct {
	mu     sync.RWMutex
	games  map[int64]*DixitGame
	byUser map[int64]int64 // user id -> chat id
}

func NewManager() *GameManager {
	return &GameManager{
		games:  make(map[int64]*DixitGame),
		byUser: make(map[int64]int64),
	}
}

// NewGame creates a session for the chat and joins the creator as its master.
func (m *GameManager) NewGame(chatID int64, u User, criterion EndCriterion, threshold int) (*DixitGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.games[chatID] != nil {
		return nil, fmt.Errorf("chat %d: %w", chatID, ErrGameExists)
	}
	if other, ok := m.byUser[u.ID]; ok && other != chatID {
		return nil, fmt.Errorf("user %d is busy in chat %d: %w", u.ID, other, ErrPlayerInOtherGame)
	}

	g := NewGame(criterion, threshold)
	if _, err := g.AddPlayer(u); err != nil {
		return nil, err
	}
	m.games[chatID] = g
	m.byUser[u.ID] = chatID
	return g, nil
}

// Join adds the user to the chat's session, enforcing that a user plays in at
// most one game at a time.
func (m *GameManager) Join(chatID int64, u User) (Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.games[chatID]
	if g == nil {
		return "", fmt.Errorf("chat %d: %w", chatID, ErrGameNotFound)
	}
	if other, ok := m.byUser[u.ID]; ok && other != chatID {
		return "", fmt.Errorf("user %d is busy in chat %d: %w", u.ID, other, ErrPlayerInOtherGame)
	}
	placement, err := g.AddPlayer(u)
	if err != nil {
		return "", err
	}
	m.byUser[u.ID] = chatID
	return placement, nil
}

// Get returns the chat's session.
func (m *GameManager) Get(chatID int64) (*DixitGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := m.games[chatID]
	if g == nil {
		return nil, fmt.Errorf("chat %d: %w", chatID, ErrGameNotFound)
	}
	return g, nil
}

// FindUserGame resolves which chat's game a user is playing in, for inline
// queries that arrive without chat context.
func (m *GameManager) FindUserGame(userID int64) (int64, *DixitGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chatID, ok := m.byUser[userID]
	if !ok {
		return 0, nil, fmt.Errorf("user %d: %w", userID, ErrPlayerNotFound)
	}
	g := m.games[chatID]
	if g == nil {
		return 0, nil, fmt.Errorf("chat %d: %w", chatID, ErrGameNotFound)
	}
	return chatID, g, nil
}

// Remove drops the chat's session and frees its players for other games.
func (m *GameManager) Remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, chatID)
	for userID, c := range m.byUser {
		if c == chatID {
			delete(m.byUser, userID)
		}
	}
}

// Restore installs a rehydrated session, rebuilding the user index from its
// roster.
func (m *GameManager) Restore(chatID int64, g *DixitGame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[chatID] = g
	for _, p := range g.Players() {
		m.byUser[p.ID] = chatID
	}
	for _, p := range g.Waiting() {
		m.byUser[p.ID] = chatID
	}
}

// ChatIDs lists the chats with an active session.
func (m *GameManager) ChatIDs() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int64, 0, len(m.games))
	for id := range m.games {
		out = append(out, id)
	}
	return out
}
