package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Health(cmd.Context(), cfg.ServerURL); err != nil {
				return err
			}
			out.Message("ok")
			return nil
		},
	}
}
