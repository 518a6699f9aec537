package model

import "fmt"

// DrawWinner is the winner sentinel the authority uses for a tied round
const DrawWinner = "draw"

// Outcome is a round result from one player's point of view
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// RoundResult is produced by the authority once both moves are in.
// MovesByPlayer is keyed by display name and always has two entries.
type RoundResult struct {
	MovesByPlayer map[string]Move
	Winner        string
}

// IsDraw reports whether the round was tied
func (r RoundResult) IsDraw() bool {
	return r.Winner == DrawWinner
}

// OutcomeFor resolves the result for the player with the given display name.
// The draw sentinel wins over any name comparison.
func (r RoundResult) OutcomeFor(displayName string) Outcome {
	switch {
	case r.IsDraw():
		return OutcomeDraw
	case r.Winner == displayName:
		return OutcomeWin
	default:
		return OutcomeLose
	}
}

// Validate checks the shape of a result received from the authority. The
// winner is not checked against the move keys; only the draw sentinel is
// interpreted.
func (r RoundResult) Validate() error {
	if len(r.MovesByPlayer) != 2 {
		return fmt.Errorf("%w: expected 2 moves, got %d", ErrInvalidResult, len(r.MovesByPlayer))
	}
	for name, m := range r.MovesByPlayer {
		if !m.Valid() {
			return fmt.Errorf("%w: invalid move %q for %q", ErrInvalidResult, m, name)
		}
	}
	return nil
}

// Equal reports whether two results carry the same payload
func (r RoundResult) Equal(other RoundResult) bool {
	if r.Winner != other.Winner || len(r.MovesByPlayer) != len(other.MovesByPlayer) {
		return false
	}
	for name, m := range r.MovesByPlayer {
		if other.MovesByPlayer[name] != m {
			return false
		}
	}
	return true
}
