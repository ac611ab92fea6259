// Package render defines the collaborator seams for round-results output and
// profile pictures, plus a plain-text renderer used as the default.
package render

import (
	"context"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

// Renderer consumes a finalized round-results record. Implementations may do
// I/O; they receive a snapshot and must not be handed live session state.
type Renderer interface {
	RenderRound(ctx context.Context, chatID int64, res *game.Results) error
}

// PictureProvider supplies a profile image per user id, best-effort: a
// failure means "no picture", never a failed round.
type PictureProvider interface {
	ProfilePicture(ctx context.Context, userID int64) ([]byte, error)
}
