package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/handgame/internal/model"
)

func newRoomCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd(e))
	cmd.AddCommand(newRoomJoinCmd(e))
	cmd.AddCommand(newRoomGetCmd(e))

	return cmd
}

func newRoomCreateCmd(e *env) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and print its ID to share",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.cfg.LoadIdentity()
			if err != nil {
				return err
			}

			room, err := e.client.CreateRoom(cmd.Context(), id.UserID, name)
			if err != nil {
				return err
			}

			e.out.Print(room)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", model.DefaultRoomName, "Room name")

	return cmd
}

func newRoomJoinCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join a room by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.cfg.LoadIdentity()
			if err != nil {
				return err
			}

			room, err := e.client.JoinRoom(cmd.Context(), normalizeRoomID(args[0]), id.UserID)
			if err != nil {
				return err
			}

			e.out.Print(room)
			return nil
		},
	}
}

func newRoomGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show the players in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := e.client.GetRoom(cmd.Context(), normalizeRoomID(args[0]))
			if err != nil {
				return err
			}

			e.out.Print(room)
			return nil
		},
	}
}

func normalizeRoomID(s string) model.RoomID {
	return model.RoomID(strings.ToUpper(strings.TrimSpace(s)))
}
