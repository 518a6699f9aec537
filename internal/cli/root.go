// Package cli implements the handgame command-line client.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/handgame/internal/client"
)

// env is the state shared by every command of one invocation
type env struct {
	cfg    *Config
	client *client.Client
	out    *Output
	logger *slog.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	e := &env{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "handgame",
		Short: "Play rock, paper, scissors against another player",
		Long: `handgame is a client for two-player rock, paper, scissors.

Log in with a display name, create a room and share its ID, or join a room
someone shared with you, then play rounds until either of you leaves.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.Resolve(); err != nil {
				return err
			}

			level := slog.LevelWarn
			if e.cfg.Verbose {
				level = slog.LevelInfo
			}
			e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			e.client = client.New(e.cfg.UserServiceURL, e.cfg.RoomServiceURL)
			e.out = NewOutput(e.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.cfg.ServerURL, "server", e.cfg.ServerURL, "Server URL used for every service not set explicitly (env: HANDGAME_SERVER)")
	flags.StringVar(&e.cfg.UserServiceURL, "user-service", e.cfg.UserServiceURL, "Identity service URL (env: HANDGAME_USER_SERVICE)")
	flags.StringVar(&e.cfg.RoomServiceURL, "room-service", e.cfg.RoomServiceURL, "Room service URL (env: HANDGAME_ROOM_SERVICE)")
	flags.StringVar(&e.cfg.GameServiceURL, "game-service", e.cfg.GameServiceURL, "Game service URL (env: HANDGAME_GAME_SERVICE)")
	flags.StringVar(&e.cfg.IdentityFile, "identity-file", e.cfg.IdentityFile, "Saved identity path (env: HANDGAME_IDENTITY_FILE)")
	flags.StringVarP(&e.cfg.Output, "output", "o", e.cfg.Output, "Output format: text, json")
	flags.BoolVarP(&e.cfg.Verbose, "verbose", "v", e.cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd(e))
	rootCmd.AddCommand(newWhoamiCmd(e))
	rootCmd.AddCommand(newRoomCmd(e))
	rootCmd.AddCommand(newPlayCmd(e))
	rootCmd.AddCommand(newHealthCmd(e))

	return rootCmd
}

// Execute runs the root command. Ctrl+C cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
