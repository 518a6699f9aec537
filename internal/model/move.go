package model

import (
	"fmt"
	"strings"
)

// Move is a single secret choice made by a player in a round
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Moves returns every valid move in display order
func Moves() []Move {
	return []Move{MoveRock, MovePaper, MoveScissors}
}

// Valid reports whether m is one of the known moves
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the move
func (m Move) String() string {
	return string(m)
}

// ParseMove converts user or wire input into a Move.
// Input is trimmed and matched case-insensitively.
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	return m, nil
}

// Beats reports whether m wins against other: rock > scissors > paper > rock
func (m Move) Beats(other Move) bool {
	switch m {
	case MoveRock:
		return other == MoveScissors
	case MoveScissors:
		return other == MovePaper
	case MovePaper:
		return other == MoveRock
	default:
		return false
	}
}
