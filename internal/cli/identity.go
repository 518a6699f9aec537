package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a display name",
		Long: `Log in with a display name. The same name always maps to the same
player, so logging in again on another machine resumes that identity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.client.Login(cmd.Context(), name)
			if err != nil {
				return err
			}

			if err := e.cfg.SaveIdentity(id); err != nil {
				return fmt.Errorf("failed to save identity: %w", err)
			}

			e.out.Print(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.cfg.LoadIdentity()
			if err != nil {
				return err
			}

			// Confirm the identity service still knows us
			current, err := e.client.GetUser(cmd.Context(), id.UserID)
			if err != nil {
				return err
			}

			e.out.Print(current)
			return nil
		},
	}
}
