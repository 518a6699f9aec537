package session

import "github.com/mcoot/handgame/internal/model"

// Notification is a typed event for the presentation layer. Transitions
// produce them; they never render anything themselves.
type Notification interface {
	notification()
}

// WaitingForOpponent is emitted once the transport is open
type WaitingForOpponent struct{}

// Paired is emitted when the authority reports both players present
type Paired struct {
	Message   string
	HasResult bool
}

// MoveSubmitted confirms the local move was sent
type MoveSubmitted struct {
	Move model.Move
}

// OpponentThinking relays a move_received event. MovesCount is the
// authority's tally and is informational only.
type OpponentThinking struct {
	MovesCount    int
	SelfSubmitted bool
}

// BothMovesIn reports whether the authority has every move for the round
func (n OpponentThinking) BothMovesIn() bool {
	return n.MovesCount >= model.MaxRoomPlayers
}

// RoundResolved carries the result and its outcome for the local player.
// Repeat is set when a result arrives for a round that was already resolved.
type RoundResolved struct {
	Result  model.RoundResult
	Outcome model.Outcome
	Self    string
	Repeat  bool
}

// RoundReset announces a fresh round
type RoundReset struct {
	Message string
}

// AwaitingOpponentReady confirms the local ready signal was sent
type AwaitingOpponentReady struct{}

// PeerLost reports that the opponent left the room
type PeerLost struct {
	Message string
	Err     error
}

// ServerError relays a diagnostic from the authority
type ServerError struct {
	Message string
}

// SessionTerminated is emitted exactly once when the session ends.
// Err is nil when the connection closed cleanly.
type SessionTerminated struct {
	Err error
}

func (WaitingForOpponent) notification()    {}
func (Paired) notification()                {}
func (MoveSubmitted) notification()         {}
func (OpponentThinking) notification()      {}
func (RoundResolved) notification()         {}
func (RoundReset) notification()            {}
func (AwaitingOpponentReady) notification() {}
func (PeerLost) notification()              {}
func (ServerError) notification()           {}
func (SessionTerminated) notification()     {}

// Sink consumes notifications. It is called from the driver goroutine only.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(n Notification)

// Notify calls f(n)
func (f SinkFunc) Notify(n Notification) {
	f(n)
}
