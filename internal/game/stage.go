package game

import "fmt"

// Stage is the period in which a session waits for one particular kind of
// player input. The string values are the canonical names used in snapshots.
type Stage string

const (
	StageLobby       Stage = "Lobby"
	StageStoryteller Stage = "Storyteller"
	StagePlayers     Stage = "Players"
	StageVote        Stage = "Vote"
)

// ParseStage validates a serialized stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageLobby, StageStoryteller, StagePlayers, StageVote:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage %q: %w", s, ErrWrongStage)
}

// EndCriterion selects the termination policy checked after each round.
type EndCriterion string

const (
	// EndLastCard ends the game once the full deck can no longer deal a
	// complete hand to every seated player.
	EndLastCard EndCriterion = "LastCard"
	// EndPoints ends the game once any cumulative score reaches the threshold.
	EndPoints EndCriterion = "Points"
	// EndRounds ends the game once the round counter reaches the threshold.
	EndRounds EndCriterion = "Rounds"
	// EndEndless never ends the game.
	EndEndless EndCriterion = "Endless"
)

// ParseEndCriterion validates a serialized end criterion name.
func ParseEndCriterion(s string) (EndCriterion, error) {
	switch EndCriterion(s) {
	case EndLastCard, EndPoints, EndRounds, EndEndless:
		return EndCriterion(s), nil
	}
	return "", fmt.Errorf("unknown end criterion %q", s)
}

// Placement tells the caller how AddPlayer seated a new player, so the
// transport can phrase its reply.
type Placement string

const (
	// PlacedSeated means the player went straight into the roster (lobby stage).
	PlacedSeated Placement = "seated"
	// PlacedSeatedDealt means the player was seated mid-round and dealt a full hand.
	PlacedSeatedDealt Placement = "seated-dealt"
	// PlacedWaitingCards means the draw pile could not cover a full hand, so the
	// player waits in the lobby until the next round boundary.
	PlacedWaitingCards Placement = "waiting-cards"
	// PlacedWaitingVote means a vote is in progress, so the player waits in the
	// lobby until the next round boundary.
	PlacedWaitingVote Placement = "waiting-vote"
	// PlacedWaitingRound means the player joined between rounds and is admitted
	// when the next one opens.
	PlacedWaitingRound Placement = "waiting-round"
)
