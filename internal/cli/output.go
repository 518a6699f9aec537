package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/handgame/internal/client"
	"github.com/mcoot/handgame/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// JSON reports whether machine-readable output was requested
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.JSON() {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// Prompt writes an inline prompt. JSON output has no prompts.
func (o *Output) Prompt(msg string) {
	if !o.JSON() {
		_, _ = fmt.Fprint(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// printCompactJSON writes one JSON document per line
func (o *Output) printCompactJSON(data any) {
	_ = json.NewEncoder(o.w).Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case model.PlayerIdentity:
		_, _ = fmt.Fprintf(o.w, "Player: %s (%s)\n", v.DisplayName, v.UserID)
	case *client.Room:
		o.printRoom(v)
	case *client.Health:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRoom(r *client.Room) {
	_, _ = fmt.Fprintf(o.w, "Room: %s (%s)\n", r.RoomID, r.RoomName)
	players := make([]string, len(r.Players))
	for i, p := range r.Players {
		players[i] = string(p)
	}
	_, _ = fmt.Fprintf(o.w, "Players (%d/%d): %s\n", len(r.Players), model.MaxRoomPlayers, strings.Join(players, ", "))
}
