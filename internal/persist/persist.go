// Package persist stores session snapshots as JSON files, one per chat, so a
// server restart picks up every running game where it left off.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

const filePrefix = "dixit_"

type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d.json", filePrefix, chatID))
}

// Save writes the snapshot atomically, via a temp file and rename.
func (s *Store) Save(chatID int64, snap game.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	tmp := s.path(chatID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(chatID)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads one chat's snapshot.
func (s *Store) Load(chatID int64) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(chatID))
}

func (s *Store) read(path string) (game.Snapshot, error) {
	var snap game.Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return snap, nil
}

// LoadAll reads every stored snapshot, keyed by chat id. Files that fail to
// parse are skipped and reported alongside the good ones.
func (s *Store) LoadAll() (map[int64]game.Snapshot, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, []error{err}
	}
	snaps := make(map[int64]game.Snapshot)
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		chatID, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json"), 10, 64)
		if err != nil {
			continue
		}
		snap, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		snaps[chatID] = snap
	}
	return snaps, errs
}

// Delete removes a chat's snapshot, if present.
func (s *Store) Delete(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(chatID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
