package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmscreen/initiative/internal/model"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream roster changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			out.Message("watching for changes (ctrl-c to stop)")
			return client.Watch(cmd.Context(), func(kind model.PushType, data json.RawMessage) {
				if cfg.Output == "json" {
					fmt.Fprintf(cmd.OutOrStdout(), "{\"push\":%q,\"data\":%s}\n", kind, data)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, data)
			})
		},
	}
}
