package protocol

import "github.com/mcoot/handgame/internal/model"

// JSON shapes on the wire. Payload fields sit next to "type" in one object.

type envelope struct {
	Type Kind `json:"type"`
}

type gameStatusWire struct {
	HasResult bool `json:"has_result"`
}

type gameConnectedWire struct {
	Type       Kind            `json:"type"`
	Message    string          `json:"message,omitempty"`
	GameStatus *gameStatusWire `json:"game_status,omitempty"`
}

type moveReceivedWire struct {
	Type       Kind `json:"type"`
	MovesCount int  `json:"moves_count"`
}

type resultWire struct {
	Moves map[string]model.Move `json:"moves,omitempty"`
	// Accepted as an alias of Moves on decode, never written
	MovesByPlayer map[string]model.Move `json:"movesByPlayer,omitempty"`
	Winner        string                `json:"winner"`
}

type gameResultWire struct {
	Type   Kind        `json:"type"`
	Result *resultWire `json:"result"`
}

// messageWire covers every kind whose only payload is a human-readable message
type messageWire struct {
	Type    Kind   `json:"type"`
	Message string `json:"message,omitempty"`
}

type submitMoveWire struct {
	Type Kind       `json:"type"`
	Move model.Move `json:"move"`
}

func resultToWire(r model.RoundResult) *resultWire {
	moves := make(map[string]model.Move, len(r.MovesByPlayer))
	for name, m := range r.MovesByPlayer {
		moves[name] = m
	}
	return &resultWire{Moves: moves, Winner: r.Winner}
}

func (w *resultWire) toModel() model.RoundResult {
	moves := w.Moves
	if len(moves) == 0 {
		moves = w.MovesByPlayer
	}
	return model.RoundResult{MovesByPlayer: moves, Winner: w.Winner}
}
