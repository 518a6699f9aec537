package game

import (
	"fmt"

	"github.com/mcoot/handgame/internal/model"
)

// Table is the round bookkeeping for one room: it collects secret moves,
// resolves the round once both are in and reopens it once both players
// are ready. It is not safe for concurrent use.
type Table struct {
	seats  map[model.PlayerID]string // player -> display name
	moves  map[model.PlayerID]model.Move
	ready  map[model.PlayerID]bool
	result *model.RoundResult
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		seats: make(map[model.PlayerID]string),
		moves: make(map[model.PlayerID]model.Move),
		ready: make(map[model.PlayerID]bool),
	}
}

// Seat places a player at the table. Seating an already seated player is a no-op.
func (t *Table) Seat(player model.PlayerID, displayName string) error {
	if _, ok := t.seats[player]; ok {
		return nil
	}
	if len(t.seats) >= model.MaxRoomPlayers {
		return model.ErrRoomFull
	}
	t.seats[player] = displayName
	return nil
}

// Leave removes a player and abandons the current round
func (t *Table) Leave(player model.PlayerID) {
	delete(t.seats, player)
	t.clearRound()
}

// Full reports whether both seats are taken
func (t *Table) Full() bool {
	return len(t.seats) == model.MaxRoomPlayers
}

// HasResult reports whether the current round has been resolved
func (t *Table) HasResult() bool {
	return t.result != nil
}

// Result returns the current round's result, if resolved
func (t *Table) Result() *model.RoundResult {
	return t.result
}

// Submit records a player's move. It returns the number of moves now held
// and, when this move completed the round, the result.
func (t *Table) Submit(player model.PlayerID, move model.Move) (int, *model.RoundResult, error) {
	if _, ok := t.seats[player]; !ok {
		return 0, nil, model.ErrNotInRoom
	}
	if !t.Full() {
		return 0, nil, model.ErrOpponentMissing
	}
	if !move.Valid() {
		return 0, nil, fmt.Errorf("%w: %q", model.ErrInvalidMove, move)
	}
	if t.result != nil {
		return 0, nil, model.ErrAlreadySubmitted
	}
	if _, ok := t.moves[player]; ok {
		return 0, nil, model.ErrAlreadySubmitted
	}

	t.moves[player] = move
	count := len(t.moves)

	if count < model.MaxRoomPlayers {
		return count, nil, nil
	}

	result := t.resolve()
	t.result = &result
	return count, t.result, nil
}

// Ready marks a player ready for another round. It reports true when both
// players are ready and the table has been reset.
func (t *Table) Ready(player model.PlayerID) (bool, error) {
	if _, ok := t.seats[player]; !ok {
		return false, model.ErrNotInRoom
	}
	if t.result == nil {
		return false, model.ErrRoundInProgress
	}

	t.ready[player] = true
	if len(t.ready) < model.MaxRoomPlayers {
		return false, nil
	}

	t.clearRound()
	return true, nil
}

func (t *Table) clearRound() {
	clear(t.moves)
	clear(t.ready)
	t.result = nil
}

func (t *Table) resolve() model.RoundResult {
	var names []string
	var moves []model.Move
	byName := make(map[string]model.Move, len(t.moves))
	for player, move := range t.moves {
		name := t.seats[player]
		names = append(names, name)
		moves = append(moves, move)
		byName[name] = move
	}
	return model.RoundResult{
		MovesByPlayer: byName,
		Winner:        Resolve(names[0], moves[0], names[1], moves[1]),
	}
}

// Resolve returns the winning display name, or model.DrawWinner for a tie
func Resolve(nameA string, moveA model.Move, nameB string, moveB model.Move) string {
	switch {
	case moveA == moveB:
		return model.DrawWinner
	case moveA.Beats(moveB):
		return nameA
	default:
		return nameB
	}
}
