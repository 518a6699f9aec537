package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/session"
	"github.com/mcoot/handgame/internal/transport"
)

func newPlayCmd(e *env) *cobra.Command {
	var roomName string

	cmd := &cobra.Command{
		Use:   "play [room-id]",
		Short: "Play rounds in a room",
		Long: `Play rock, paper, scissors in a room.

Without a room ID a new room is created; share its ID with your opponent.
With a room ID you join that room. Type your move when prompted, answer y/n
after each round, or type quit at any time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.cfg.LoadIdentity()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var room *roomRef
			if len(args) == 1 {
				room, err = e.joinRoom(ctx, normalizeRoomID(args[0]), id.UserID)
			} else {
				room, err = e.createRoom(ctx, id.UserID, roomName)
			}
			if err != nil {
				return err
			}
			if !e.out.JSON() {
				e.out.PrintMessage(fmt.Sprintf("Room %s (%s). Share the room ID with your opponent.", room.id, room.name))
			}

			conn := transport.New(transport.DefaultConfig(e.cfg.GameServiceURL), e.logger)
			if err := conn.Dial(ctx, string(room.id), string(id.UserID)); err != nil {
				return fmt.Errorf("%w: %w", session.ErrConnectionUnavailable, err)
			}

			return play(ctx, room.id, id, conn, cmd.InOrStdin(), e.out, e.logger)
		},
	}

	cmd.Flags().StringVar(&roomName, "name", model.DefaultRoomName, "Room name when creating a room")

	return cmd
}

type roomRef struct {
	id   model.RoomID
	name string
}

func (e *env) createRoom(ctx context.Context, userID model.PlayerID, name string) (*roomRef, error) {
	room, err := e.client.CreateRoom(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	return &roomRef{id: room.RoomID, name: room.RoomName}, nil
}

func (e *env) joinRoom(ctx context.Context, roomID model.RoomID, userID model.PlayerID) (*roomRef, error) {
	room, err := e.client.JoinRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return &roomRef{id: room.RoomID, name: room.RoomName}, nil
}

// errQuit ends the game at the player's request
var errQuit = errors.New("player quit")

// play runs one game over an open connection until the player quits, the
// opponent leaves or the connection ends
func play(
	ctx context.Context,
	roomID model.RoomID,
	self model.PlayerIdentity,
	conn session.Conn,
	in io.Reader,
	out *Output,
	logger *slog.Logger,
) error {
	sess := session.New(roomID, self, conn, logger)
	view := newRenderer(out, self.DisplayName)
	driver := session.NewDriver(sess, conn, view, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return driver.Run(gctx)
	})
	g.Go(func() error {
		err := readInput(gctx, driver, view, in)
		// Quitting or running out of input stops the driver too
		cancel()
		if errors.Is(err, errQuit) || errors.Is(err, session.ErrSessionTerminated) {
			return nil
		}
		return err
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readInput feeds terminal lines to the driver until the game is over
func readInput(ctx context.Context, driver *session.Driver, view *renderer, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-driver.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-view.Over():
			return nil
		case <-driver.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			if err := handleInput(ctx, driver, view, line); err != nil {
				return err
			}
		}
	}
}

func handleInput(ctx context.Context, driver *session.Driver, view *renderer, line string) error {
	input := strings.ToLower(strings.TrimSpace(line))
	if input == "" {
		return nil
	}
	if input == "quit" || input == "exit" || input == "q" {
		return errQuit
	}

	snap, err := driver.Snapshot(ctx)
	if err != nil {
		return err
	}

	switch snap.State {
	case session.StateAwaitingMove:
		move, err := parseMoveInput(input)
		if err != nil {
			view.say("Please enter rock, paper or scissors.", movePrompt)
			return nil
		}
		if err := driver.SubmitMove(ctx, move); err != nil {
			view.say("Could not submit move: "+err.Error(), "")
		}

	case session.StateRoundResolved:
		switch input {
		case "y", "yes":
			if err := driver.SignalReadyForNextRound(ctx); err != nil {
				view.say("Could not start a new round: "+err.Error(), "")
			}
		case "n", "no":
			return errQuit
		default:
			view.say("", againPrompt)
		}

	default:
		view.say("Please wait...", "")
	}
	return nil
}

// parseMoveInput accepts full move names and their first letters
func parseMoveInput(input string) (model.Move, error) {
	switch input {
	case "r":
		return model.MoveRock, nil
	case "p":
		return model.MovePaper, nil
	case "s":
		return model.MoveScissors, nil
	}
	return model.ParseMove(input)
}
