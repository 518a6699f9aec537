package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/transport"
)

// Conn is the transport surface the driver needs
type Conn interface {
	Sender
	Events() <-chan transport.Event
	Close() error
}

// Snapshot is a point-in-time copy of a session's state
type Snapshot struct {
	State            State
	HasSubmittedMove bool
	LastResult       *model.RoundResult
}

type action struct {
	run   func(s *Session) ([]Notification, error)
	reply chan error
}

// Driver serializes transport events and user actions onto a single
// goroutine. Each transition runs to completion before its notifications
// reach the sink.
type Driver struct {
	session *Session
	conn    Conn
	sink    Sink
	logger  *slog.Logger

	actions chan action
	done    chan struct{}
}

// NewDriver wires a session to its transport and sink
func NewDriver(s *Session, conn Conn, sink Sink, logger *slog.Logger) *Driver {
	return &Driver{
		session: s,
		conn:    conn,
		sink:    sink,
		logger:  logger.With(slog.String("component", "driver")),
		actions: make(chan action),
		done:    make(chan struct{}),
	}
}

// Run processes events until the transport closes or ctx is cancelled.
// Cancellation closes the transport. Run must be called once.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.done)
	defer func() { _ = d.conn.Close() }()

	events := d.conn.Events()
	for {
		select {
		case <-ctx.Done():
			d.deliver(d.session.HandleClose(nil))
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				d.deliver(d.session.HandleClose(nil))
				return nil
			}
			switch e := ev.(type) {
			case transport.Opened:
				d.deliver(d.session.HandleOpen())
			case transport.Frame:
				d.deliver(d.session.HandleFrame(e.Data))
			case transport.Closed:
				d.deliver(d.session.HandleClose(e.Err))
				return nil
			default:
				d.logger.Warn("unhandled transport event", slog.Any("event", ev))
			}

		case a := <-d.actions:
			notes, err := a.run(d.session)
			d.deliver(notes)
			a.reply <- err
		}
	}
}

// Done is closed once Run has returned
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// SubmitMove submits the local move for the current round
func (d *Driver) SubmitMove(ctx context.Context, move model.Move) error {
	return d.do(ctx, func(s *Session) ([]Notification, error) {
		return s.SubmitMove(move)
	})
}

// SignalReadyForNextRound opts into another round
func (d *Driver) SignalReadyForNextRound(ctx context.Context) error {
	return d.do(ctx, func(s *Session) ([]Notification, error) {
		return s.SignalReadyForNextRound()
	})
}

// Snapshot returns the session state as seen by the driver goroutine
func (d *Driver) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := d.do(ctx, func(s *Session) ([]Notification, error) {
		snap = Snapshot{
			State:            s.State(),
			HasSubmittedMove: s.HasSubmittedMove(),
			LastResult:       s.LastResult(),
		}
		return nil, nil
	})
	if errors.Is(err, ErrSessionTerminated) {
		snap.State = StateDisconnected
		snap.HasSubmittedMove = d.session.HasSubmittedMove()
		snap.LastResult = d.session.LastResult()
	}
	return snap, err
}

func (d *Driver) do(ctx context.Context, fn func(s *Session) ([]Notification, error)) error {
	a := action{run: fn, reply: make(chan error, 1)}

	select {
	case d.actions <- a:
	case <-d.done:
		return ErrSessionTerminated
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-a.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) deliver(notes []Notification) {
	for _, n := range notes {
		d.sink.Notify(n)
	}
}
