package session

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrConnectionUnavailable = errors.New("connection unavailable")
	ErrDuplicateSubmission   = errors.New("move already submitted this round")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrPeerLost              = errors.New("opponent disconnected")
	ErrSessionTerminated     = errors.New("session terminated")
)

// TransitionError describes an event or action that is not defined for the
// state the session was in.
type TransitionError struct {
	State State
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in state %s", e.Event, e.State)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
