package session

// State is a position in the round-synchronization lifecycle
type State int

const (
	// StateConnecting is the initial state before the transport opens
	StateConnecting State = iota
	// StateWaitingForOpponent means the transport is open but the authority has not paired us
	StateWaitingForOpponent
	// StateAwaitingMove means both players are present and the round is open
	StateAwaitingMove
	// StateMoveSubmitted means the local move has left the client
	StateMoveSubmitted
	// StateRoundResolved means the authority delivered the round result
	StateRoundResolved
	// StateDisconnected is terminal
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateWaitingForOpponent:
		return "waiting_for_opponent"
	case StateAwaitingMove:
		return "awaiting_move"
	case StateMoveSubmitted:
		return "move_submitted"
	case StateRoundResolved:
		return "round_resolved"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateDisconnected
}
