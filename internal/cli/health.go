package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := e.client.Health(cmd.Context())
			if err != nil {
				return err
			}

			e.out.Print(result)
			return nil
		},
	}
}
