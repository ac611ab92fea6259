package game

import (
	"errors"
	"testing"
)

func TestManagerNewGame(t *testing.T) {
	m := NewManager()
	u := testUsers(1)[0]

	g, err := m.NewGame(100, u, EndLastCard, 0)
	if err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	if master, ok := g.Master(); !ok || master.ID != u.ID {
		t.Fatalf("creator should be the master, got %+v ok=%v", master, ok)
	}

	if _, err := m.NewGame(100, User{ID: 2, FirstName: "Bo"}, EndLastCard, 0); !errors.Is(err, ErrGameExists) {
		t.Fatalf("expected ErrGameExists, got %v", err)
	}
	if _, err := m.NewGame(200, u, EndLastCard, 0); !errors.Is(err, ErrPlayerInOtherGame) {
		t.Fatalf("expected ErrPlayerInOtherGame for a busy creator, got %v", err)
	}
}

func TestManagerJoin(t *testing.T) {
	m := NewManager()
	us := testUsers(3)
	if _, err := m.NewGame(100, us[0], EndLastCard, 0); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	if _, err := m.NewGame(200, us[2], EndLastCard, 0); err != nil {
		t.Fatalf("failed to create second game: %v", err)
	}

	if _, err := m.Join(999, us[1]); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	placement, err := m.Join(100, us[1])
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if placement != PlacedSeated {
		t.Fatalf("expected placement %q, got %q", PlacedSeated, placement)
	}
	if _, err := m.Join(200, us[1]); !errors.Is(err, ErrPlayerInOtherGame) {
		t.Fatalf("expected ErrPlayerInOtherGame, got %v", err)
	}
}

func TestManagerFindUserGame(t *testing.T) {
	m := NewManager()
	u := testUsers(1)[0]
	g, err := m.NewGame(100, u, EndLastCard, 0)
	if err != nil {
		t.Fatalf("failed to create game: %v", err)
	}

	chatID, found, err := m.FindUserGame(u.ID)
	if err != nil {
		t.Fatalf("failed to find user game: %v", err)
	}
	if chatID != 100 || found != g {
		t.Fatalf("expected chat 100 and the created session, got chat %d", chatID)
	}
	if _, _, err := m.FindUserGame(999); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestManagerRemoveFreesPlayers(t *testing.T) {
	m := NewManager()
	us := testUsers(2)
	if _, err := m.NewGame(100, us[0], EndLastCard, 0); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	if _, err := m.Join(100, us[1]); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	m.Remove(100)
	if _, err := m.Get(100); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound after removal, got %v", err)
	}
	// Both players are free to play elsewhere now.
	if _, err := m.NewGame(200, us[0], EndLastCard, 0); err != nil {
		t.Fatalf("removed players should be free, got %v", err)
	}
	if _, err := m.Join(200, us[1]); err != nil {
		t.Fatalf("removed players should be free, got %v", err)
	}
}

func TestManagerRestore(t *testing.T) {
	m := NewManager()
	g := NewGame(EndLastCard, 0)
	us := testUsers(2)
	for _, u := range us {
		if _, err := g.AddPlayer(u); err != nil {
			t.Fatalf("failed to add player: %v", err)
		}
	}

	m.Restore(300, g)
	got, err := m.Get(300)
	if err != nil || got != g {
		t.Fatalf("expected the restored session back, got %v", err)
	}
	for _, u := range us {
		if _, err := m.NewGame(400, u, EndLastCard, 0); !errors.Is(err, ErrPlayerInOtherGame) {
			t.Fatalf("restored roster should be indexed, got %v", err)
		}
	}
}
