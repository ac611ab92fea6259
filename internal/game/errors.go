package game

import "errors"

// Every rejected operation leaves the session untouched and surfaces one of
// these kinds, usually wrapped with the offending id. The transport layer
// matches them with errors.Is and builds the user-facing message; the core
// never produces user-facing text.
var (
	ErrAlreadyInGame        = errors.New("player is already in the game")
	ErrTooManyPlayers       = errors.New("not enough cards for another player")
	ErrNotMaster            = errors.New("player is not the master")
	ErrGameAlreadyStarted   = errors.New("game has already started")
	ErrHand                 = errors.New("hand size invariant violated")
	ErrNoCards              = errors.New("draw pile exhausted")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrPlayerNotStoryteller = errors.New("player is not the storyteller")
	ErrPlayerIsStoryteller  = errors.New("player is the storyteller")
	ErrClueNotGiven         = errors.New("clue not given")
	ErrCardHasNoSender      = errors.New("card is not on the table")
	ErrSelfVote             = errors.New("players cannot vote for their own card")
	ErrWrongStage           = errors.New("invalid stage for action")

	ErrGameNotFound      = errors.New("no game in this chat")
	ErrGameExists        = errors.New("a game already exists in this chat")
	ErrPlayerInOtherGame = errors.New("player is in another game")
)
