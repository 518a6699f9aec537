// Package session implements one participant's view of a game pairing: the
// round-synchronization state machine and the driver that feeds it.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/protocol"
)

// Sender delivers encoded frames to the authority
type Sender interface {
	Send(data []byte) error
}

// Session holds the local state of a single game pairing. It has no locks;
// callers must serialize access, which Driver does.
type Session struct {
	roomID model.RoomID
	self   model.PlayerIdentity
	sender Sender
	logger *slog.Logger

	state            State
	hasSubmittedMove bool
	lastResult       *model.RoundResult
	readySignaled    bool
}

// New creates a session in StateConnecting
func New(roomID model.RoomID, self model.PlayerIdentity, sender Sender, logger *slog.Logger) *Session {
	return &Session{
		roomID: roomID,
		self:   self,
		sender: sender,
		logger: logger.With(
			slog.String("component", "session"),
			slog.String("room_id", string(roomID)),
			slog.String("user_id", string(self.UserID)),
		),
		state: StateConnecting,
	}
}

// RoomID returns the room this session is scoped to
func (s *Session) RoomID() model.RoomID { return s.roomID }

// Self returns the local player's identity
func (s *Session) Self() model.PlayerIdentity { return s.self }

// State returns the current state
func (s *Session) State() State { return s.state }

// HasSubmittedMove reports whether a move left this client in the current round
func (s *Session) HasSubmittedMove() bool { return s.hasSubmittedMove }

// LastResult returns the result of the current round, or nil before it resolves
func (s *Session) LastResult() *model.RoundResult {
	if s.lastResult == nil {
		return nil
	}
	r := *s.lastResult
	return &r
}

// SubmitMove sends the local move for the current round
func (s *Session) SubmitMove(move model.Move) ([]Notification, error) {
	if s.state.Terminal() {
		return nil, ErrSessionTerminated
	}
	if s.hasSubmittedMove {
		return nil, ErrDuplicateSubmission
	}
	if s.state != StateAwaitingMove {
		return nil, &TransitionError{State: s.state, Event: "submit_move"}
	}

	data, err := protocol.EncodeOutbound(protocol.SubmitMove{Move: move})
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}

	s.hasSubmittedMove = true
	s.state = StateMoveSubmitted
	s.logger.Info("move submitted", slog.String("move", move.String()))

	return []Notification{MoveSubmitted{Move: move}}, nil
}

// SignalReadyForNextRound tells the authority the local player wants another
// round. The round itself only resets on the authority's game_reset.
func (s *Session) SignalReadyForNextRound() ([]Notification, error) {
	if s.state.Terminal() {
		return nil, ErrSessionTerminated
	}
	if s.state != StateRoundResolved {
		return nil, &TransitionError{State: s.state, Event: "ready_for_next_round"}
	}
	if s.readySignaled {
		return nil, nil
	}

	data, err := protocol.EncodeOutbound(protocol.ReadyForNextRound{})
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}

	s.readySignaled = true
	s.logger.Info("ready for next round")

	return []Notification{AwaitingOpponentReady{}}, nil
}

// HandleOpen records that the transport is connected
func (s *Session) HandleOpen() []Notification {
	if s.state != StateConnecting {
		s.rejected("transport_open")
		return nil
	}
	s.state = StateWaitingForOpponent
	return []Notification{WaitingForOpponent{}}
}

// HandleClose moves the session to its terminal state. Only the first call
// produces a notification.
func (s *Session) HandleClose(cause error) []Notification {
	if s.state.Terminal() {
		return nil
	}
	prev := s.state
	s.state = StateDisconnected

	attrs := []any{slog.String("previous_state", prev.String())}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	s.logger.Info("session terminated", attrs...)

	return []Notification{SessionTerminated{Err: cause}}
}

// HandleFrame decodes a raw frame and applies it. Frames that cannot be
// decoded are logged and dropped.
func (s *Session) HandleFrame(data []byte) []Notification {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		var unknown *protocol.UnknownKindError
		if errors.As(err, &unknown) {
			s.logger.Warn("ignoring unknown message kind", slog.String("kind", string(unknown.Kind)))
		} else {
			s.logger.Warn("discarding malformed frame", slog.String("error", err.Error()))
		}
		return nil
	}
	return s.Apply(msg)
}

// Apply runs the transition for a decoded authority message
func (s *Session) Apply(msg protocol.Inbound) []Notification {
	if s.state.Terminal() {
		s.rejected(string(msg.Kind()))
		return nil
	}

	switch m := msg.(type) {
	case protocol.GameConnected:
		return s.onGameConnected(m)
	case protocol.MoveReceived:
		return s.onMoveReceived(m)
	case protocol.GameResult:
		return s.onGameResult(m)
	case protocol.GameReset:
		return s.onGameReset(m)
	case protocol.PlayerDisconnected:
		return s.onPlayerDisconnected(m)
	case protocol.ServerError:
		return s.onServerError(m)
	default:
		s.rejected(string(msg.Kind()))
		return nil
	}
}

func (s *Session) onGameConnected(m protocol.GameConnected) []Notification {
	if s.state != StateWaitingForOpponent {
		s.rejected(string(m.Kind()))
		return nil
	}
	s.state = StateAwaitingMove
	return []Notification{Paired{Message: m.Message, HasResult: m.HasResult}}
}

func (s *Session) onMoveReceived(m protocol.MoveReceived) []Notification {
	return []Notification{OpponentThinking{MovesCount: m.MovesCount, SelfSubmitted: s.hasSubmittedMove}}
}

func (s *Session) onGameResult(m protocol.GameResult) []Notification {
	result := m.Result
	n := RoundResolved{
		Result:  result,
		Outcome: result.OutcomeFor(s.self.DisplayName),
		Self:    s.self.DisplayName,
	}

	switch s.state {
	case StateAwaitingMove, StateMoveSubmitted:
		s.hasSubmittedMove = true
		s.lastResult = &result
		s.state = StateRoundResolved
		s.logger.Info("round resolved",
			slog.String("winner", result.Winner),
			slog.String("outcome", string(n.Outcome)),
		)
		return []Notification{n}

	case StateRoundResolved:
		if s.lastResult == nil || !s.lastResult.Equal(result) {
			s.rejected(string(m.Kind()))
			return nil
		}
		n.Repeat = true
		return []Notification{n}

	default:
		s.rejected(string(m.Kind()))
		return nil
	}
}

func (s *Session) onGameReset(m protocol.GameReset) []Notification {
	if s.state != StateRoundResolved {
		s.rejected(string(m.Kind()))
		return nil
	}
	s.state = StateAwaitingMove
	s.hasSubmittedMove = false
	s.lastResult = nil
	s.readySignaled = false
	return []Notification{RoundReset{Message: m.Message}}
}

func (s *Session) onPlayerDisconnected(m protocol.PlayerDisconnected) []Notification {
	s.logger.Info("opponent disconnected", slog.String("state", s.state.String()))
	return []Notification{PeerLost{Message: m.Message, Err: ErrPeerLost}}
}

func (s *Session) onServerError(m protocol.ServerError) []Notification {
	s.logger.Warn("authority reported an error", slog.String("message", m.Message))
	return []Notification{ServerError{Message: m.Message}}
}

func (s *Session) rejected(event string) {
	err := &TransitionError{State: s.state, Event: event}
	s.logger.Warn("ignoring event", slog.String("error", err.Error()))
}
