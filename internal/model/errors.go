package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidDisplayName = errors.New("display name must be 1-32 characters")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotInRoom    = errors.New("player is not in room")

	// Round errors
	ErrInvalidMove      = errors.New("invalid move")
	ErrInvalidResult    = errors.New("invalid round result")
	ErrAlreadySubmitted = errors.New("player has already submitted a move this round")
	ErrRoundInProgress  = errors.New("round has not been resolved yet")
	ErrOpponentMissing  = errors.New("waiting for an opponent")
)
