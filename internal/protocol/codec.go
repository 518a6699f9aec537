package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/handgame/internal/model"
)

// Errors
var (
	// ErrMalformedMessage is returned for frames that cannot be decoded
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnknownKind is returned for frames whose discriminant is not recognised
	ErrUnknownKind = errors.New("unknown message kind")
)

// UnknownKindError reports the discriminant that could not be dispatched.
// Newer authorities may send kinds this client does not know about, so
// callers should log and skip rather than fail.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown message kind %q", e.Kind)
}

func (e *UnknownKindError) Unwrap() error {
	return ErrUnknownKind
}

// DecodeInbound parses an authority frame into its typed message
func DecodeInbound(data []byte) (Inbound, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindGameConnected:
		var w gameConnectedWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		msg := GameConnected{Message: w.Message}
		if w.GameStatus != nil {
			msg.HasResult = w.GameStatus.HasResult
		}
		return msg, nil

	case KindMoveReceived:
		var w moveReceivedWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		if w.MovesCount < 0 {
			return nil, fmt.Errorf("%w: negative moves_count", ErrMalformedMessage)
		}
		return MoveReceived{MovesCount: w.MovesCount}, nil

	case KindGameResult:
		var w gameResultWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		if w.Result == nil {
			return nil, fmt.Errorf("%w: game_result without result", ErrMalformedMessage)
		}
		result := w.Result.toModel()
		if err := result.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return GameResult{Result: result}, nil

	case KindGameReset:
		var w messageWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		return GameReset{Message: w.Message}, nil

	case KindPlayerDisconnected:
		var w messageWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		return PlayerDisconnected{Message: w.Message}, nil

	case KindError:
		var w messageWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ServerError{Message: w.Message}, nil

	case KindSubmitMove, KindReadyForNextRound:
		return nil, fmt.Errorf("%w: %s is only sent by players", ErrMalformedMessage, kind)

	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

// EncodeOutbound serializes a player message for the wire
func EncodeOutbound(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case SubmitMove:
		if !m.Move.Valid() {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidMove, m.Move)
		}
		return json.Marshal(submitMoveWire{Type: KindSubmitMove, Move: m.Move})
	case ReadyForNextRound:
		return json.Marshal(envelope{Type: KindReadyForNextRound})
	default:
		return nil, fmt.Errorf("unsupported outbound message %T", msg)
	}
}

// DecodeOutbound parses a player frame; used by the authority
func DecodeOutbound(data []byte) (Outbound, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSubmitMove:
		var w submitMoveWire
		if err := unmarshal(data, &w); err != nil {
			return nil, err
		}
		m, err := model.ParseMove(string(w.Move))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return SubmitMove{Move: m}, nil

	case KindReadyForNextRound:
		return ReadyForNextRound{}, nil

	case KindGameConnected, KindMoveReceived, KindGameResult, KindGameReset, KindPlayerDisconnected, KindError:
		return nil, fmt.Errorf("%w: %s is only sent by the authority", ErrMalformedMessage, kind)

	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

// EncodeInbound serializes an authority message for the wire
func EncodeInbound(msg Inbound) ([]byte, error) {
	switch m := msg.(type) {
	case GameConnected:
		return json.Marshal(gameConnectedWire{
			Type:       KindGameConnected,
			Message:    m.Message,
			GameStatus: &gameStatusWire{HasResult: m.HasResult},
		})
	case MoveReceived:
		return json.Marshal(moveReceivedWire{Type: KindMoveReceived, MovesCount: m.MovesCount})
	case GameResult:
		return json.Marshal(gameResultWire{Type: KindGameResult, Result: resultToWire(m.Result)})
	case GameReset:
		return json.Marshal(messageWire{Type: KindGameReset, Message: m.Message})
	case PlayerDisconnected:
		return json.Marshal(messageWire{Type: KindPlayerDisconnected, Message: m.Message})
	case ServerError:
		return json.Marshal(messageWire{Type: KindError, Message: m.Message})
	default:
		return nil, fmt.Errorf("unsupported inbound message %T", msg)
	}
}

func peekKind(data []byte) (Kind, error) {
	var env envelope
	if err := unmarshal(data, &env); err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env.Type, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return nil
}
