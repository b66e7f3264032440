package cli

import (
	"github.com/spf13/cobra"
)

func newRollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll",
		Short: "Reroll initiative for the whole roster (GM only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			snap, err := client.Roll()
			if err != nil {
				return err
			}
			return out.Snapshot(snap)
		},
	}
}
