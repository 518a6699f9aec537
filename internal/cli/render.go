package cli

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/session"
)

const (
	movePrompt  = "Choose your move (rock/paper/scissors, or quit): "
	againPrompt = "Play another round? (y/n): "
)

// renderer presents session notifications on the terminal. It closes over
// once the game cannot continue.
type renderer struct {
	out  *Output
	self string

	mu       sync.Mutex
	over     chan struct{}
	overOnce sync.Once
}

var _ session.Sink = (*renderer)(nil)

func newRenderer(out *Output, self string) *renderer {
	return &renderer{out: out, self: self, over: make(chan struct{})}
}

// Over is closed when the opponent leaves or the session ends
func (r *renderer) Over() <-chan struct{} {
	return r.over
}

func (r *renderer) end() {
	r.overOnce.Do(func() { close(r.over) })
}

// say prints a line and an optional prompt without interleaving with other output
func (r *renderer) say(msg, prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg != "" {
		r.out.PrintMessage(msg)
	}
	if prompt != "" {
		r.out.Prompt(prompt)
	}
}

// Notify implements session.Sink
func (r *renderer) Notify(n session.Notification) {
	if r.out.JSON() {
		r.notifyJSON(n)
	} else {
		r.notifyText(n)
	}

	switch n.(type) {
	case session.PeerLost, session.SessionTerminated:
		r.end()
	}
}

func (r *renderer) notifyText(n session.Notification) {
	switch n := n.(type) {
	case session.WaitingForOpponent:
		r.say("Connected. Waiting for an opponent to join...", "")

	case session.Paired:
		msg := n.Message
		if msg == "" {
			msg = "Opponent found!"
		}
		if n.HasResult {
			msg += " (a previous round result is still on record)"
		}
		r.say(msg, movePrompt)

	case session.MoveSubmitted:
		r.say(fmt.Sprintf("You chose %s.", n.Move), "")

	case session.OpponentThinking:
		switch {
		case n.BothMovesIn():
			r.say("Both moves are in!", "")
		case n.SelfSubmitted:
			r.say("Waiting for your opponent to choose...", "")
		default:
			r.say("Your opponent has chosen.", "")
		}

	case session.RoundResolved:
		if n.Repeat {
			return
		}
		r.say(describeResult(n), againPrompt)

	case session.RoundReset:
		msg := n.Message
		if msg == "" {
			msg = "New round!"
		}
		r.say(msg, movePrompt)

	case session.AwaitingOpponentReady:
		r.say("Waiting for your opponent to be ready...", "")

	case session.PeerLost:
		msg := n.Message
		if msg == "" {
			msg = "Your opponent left the game"
		}
		r.say(msg+". Start a new game to play again.", "")

	case session.ServerError:
		r.say("Server: "+n.Message, "")

	case session.SessionTerminated:
		if n.Err != nil {
			r.say(fmt.Sprintf("Connection lost: %s. Run 'handgame play' to start over.", n.Err), "")
		} else {
			r.say("Disconnected.", "")
		}
	}
}

func describeResult(n session.RoundResolved) string {
	moves := make([]string, 0, len(n.Result.MovesByPlayer))
	for name, move := range n.Result.MovesByPlayer {
		if name == n.Self {
			name = "You"
		}
		moves = append(moves, fmt.Sprintf("%s: %s", name, move))
	}
	// Sorted by label so the order does not depend on our own name
	slices.Sort(moves)

	var b strings.Builder
	b.WriteString(strings.Join(moves, ", "))
	b.WriteString("\n")

	switch n.Outcome {
	case model.OutcomeWin:
		b.WriteString("You win!")
	case model.OutcomeLose:
		b.WriteString("You lose.")
	default:
		b.WriteString("It's a draw.")
	}
	return b.String()
}

// notificationJSON is the line emitted per notification with --output json
type notificationJSON struct {
	Event      string                `json:"event"`
	Message    string                `json:"message,omitempty"`
	Move       model.Move            `json:"move,omitempty"`
	MovesCount int                   `json:"moves_count,omitempty"`
	HasResult  bool                  `json:"has_result,omitempty"`
	Moves      map[string]model.Move `json:"moves,omitempty"`
	Winner     string                `json:"winner,omitempty"`
	Outcome    model.Outcome         `json:"outcome,omitempty"`
	Repeat     bool                  `json:"repeat,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func (r *renderer) notifyJSON(n session.Notification) {
	var line notificationJSON
	switch n := n.(type) {
	case session.WaitingForOpponent:
		line = notificationJSON{Event: "waiting_for_opponent"}
	case session.Paired:
		line = notificationJSON{Event: "paired", Message: n.Message, HasResult: n.HasResult}
	case session.MoveSubmitted:
		line = notificationJSON{Event: "move_submitted", Move: n.Move}
	case session.OpponentThinking:
		line = notificationJSON{Event: "move_received", MovesCount: n.MovesCount}
	case session.RoundResolved:
		line = notificationJSON{
			Event:   "round_resolved",
			Moves:   n.Result.MovesByPlayer,
			Winner:  n.Result.Winner,
			Outcome: n.Outcome,
			Repeat:  n.Repeat,
		}
	case session.RoundReset:
		line = notificationJSON{Event: "round_reset", Message: n.Message}
	case session.AwaitingOpponentReady:
		line = notificationJSON{Event: "awaiting_opponent_ready"}
	case session.PeerLost:
		line = notificationJSON{Event: "peer_lost", Message: n.Message}
	case session.ServerError:
		line = notificationJSON{Event: "server_error", Message: n.Message}
	case session.SessionTerminated:
		line = notificationJSON{Event: "session_terminated"}
		if n.Err != nil {
			line.Error = n.Err.Error()
		}
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.out.printCompactJSON(line)
}
