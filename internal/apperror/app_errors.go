package apperror

import "errors"

var (
	ErrNoGame           = errors.New("no game in this conversation")
	ErrAlreadyExists    = errors.New("game already exists")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrAlreadyJoined    = errors.New("player already joined")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrAssignmentFailed = errors.New("role assignment failed")
	ErrNotInGame        = errors.New("player is not in an active game")
	ErrGameNotStarted   = errors.New("game is not started")
	ErrPlayerDead       = errors.New("player is dead")
	ErrNotJoined        = errors.New("player has not joined this game")
	ErrNotCreator       = errors.New("only the creator can do this")

	ErrWrongPhase     = errors.New("not allowed in the current phase")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrNoNightAction  = errors.New("role has no night action")
	ErrRegistryClosed = errors.New("registry is closed")
)
