package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

// TextRenderer appends each scored round to a results log file.
type TextRenderer struct {
	mu       sync.Mutex
	filename string
}

func NewTextRenderer(filename string) *TextRenderer {
	return &TextRenderer{filename: filename}
}

func (r *TextRenderer) RenderRound(_ context.Context, chatID int64, res *game.Results) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	names := make(map[int64]string, len(res.Players))
	for _, p := range res.Players {
		names[p.ID] = p.Name
	}

	var sb strings.Builder

	if res.RoundNumber == 1 {
		sb.WriteString(fmt.Sprintf("Dixit results - chat %d, game %d (%s)\n", chatID, res.GameNumber, res.GameID))
		sb.WriteString(fmt.Sprintf("Started: %s\n", time.Now().Format("2006-01-02 15:04:05")))
		sb.WriteString(strings.Repeat("=", 50) + "\n\n")
		sb.WriteString("Players:\n")
		for _, p := range res.Players {
			sb.WriteString(fmt.Sprintf("- %s\n", p.Name))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Round %d: %q by %s\n", res.RoundNumber, res.Clue, res.Storyteller.Name))
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	for _, ownerID := range res.TableOrder {
		card := res.Table[ownerID]
		marker := ""
		if ownerID == res.Storyteller.ID {
			marker = " (storyteller)"
		}
		sb.WriteString(fmt.Sprintf("- card %d by %s%s\n", card.ID, names[ownerID], marker))
	}

	if len(res.Votes) > 0 {
		sb.WriteString("\nVotes:\n")
		for _, p := range res.Players {
			if ownerID, ok := res.Votes[p.ID]; ok {
				sb.WriteString(fmt.Sprintf("- %s voted for %s\n", p.Name, names[ownerID]))
			}
		}
	}

	sb.WriteString("\nScores after this round:\n")
	for _, entry := range res.Score {
		if entry.Delta != 0 {
			sb.WriteString(fmt.Sprintf("- %s: %d points (+%d)\n", entry.Player.Name, entry.Total, entry.Delta))
		} else {
			sb.WriteString(fmt.Sprintf("- %s: %d points\n", entry.Player.Name, entry.Total))
		}
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
