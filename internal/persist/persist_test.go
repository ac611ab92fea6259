package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

func testSnapshot(t *testing.T) game.Snapshot {
	t.Helper()
	g := game.NewGame(game.EndLastCard, 0)
	for i, name := range []string{"Ana", "Bruno", "Carla"} {
		if _, err := g.AddPlayer(game.User{ID: int64(i + 1), FirstName: name}); err != nil {
			t.Fatalf("failed to add player: %v", err)
		}
	}
	return g.Snapshot()
}

func TestSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	snap := testSnapshot(t)

	if err := store.Save(42, snap); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	got, err := store.Load(42)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if got.GameID != snap.GameID {
		t.Fatalf("game id changed: %s vs %s", got.GameID, snap.GameID)
	}
	if len(got.Players) != len(snap.Players) {
		t.Fatalf("expected %d players, got %d", len(snap.Players), len(got.Players))
	}
	if len(got.Cards) != len(snap.Cards) {
		t.Fatalf("expected %d cards, got %d", len(snap.Cards), len(got.Cards))
	}

	if _, err := game.RestoreGame(got); err != nil {
		t.Fatalf("loaded snapshot failed to restore: %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Save(1, testSnapshot(t)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Save(2, testSnapshot(t)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	// A corrupt session file is reported, not fatal; unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "dixit_3.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("failed to plant corrupt file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("failed to plant unrelated file: %v", err)
	}

	snaps, errs := store.LoadAll()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for the corrupt file, got %d", len(errs))
	}
	for _, chatID := range []int64{1, 2} {
		if _, ok := snaps[chatID]; !ok {
			t.Fatalf("missing snapshot for chat %d", chatID)
		}
	}
}

func TestDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Save(7, testSnapshot(t)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	if err := store.Delete(7); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := store.Load(7); !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error after delete, got %v", err)
	}
	// Deleting again is a no-op.
	if err := store.Delete(7); err != nil {
		t.Fatalf("second delete should be silent, got %v", err)
	}
}
