// Package cli implements initctl, a command-line client for the
// initiative tracker's WebSocket protocol.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg Config
	out *Output
)

func newRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	cmd := &cobra.Command{
		Use:           "initctl",
		Short:         "Command-line client for the initiative tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			out, err = NewOutput(cmd.OutOrStdout(), cfg.Output)
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "server URL")
	cmd.PersistentFlags().StringVarP(&cfg.Name, "name", "n", cfg.Name, "player character name")
	cmd.PersistentFlags().StringVarP(&cfg.Token, "token", "t", cfg.Token, "GM token")
	cmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "output format (text or json)")

	cmd.AddCommand(
		newShowCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newRollCmd(),
		newWatchCmd(),
		newHealthCmd(),
	)

	return cmd
}

// connect dials the server and authenticates with whichever credential
// is configured. Exactly one of --name and --token must be set.
func connect(ctx context.Context) (*Client, *Output, error) {
	if (cfg.Name == "") == (cfg.Token == "") {
		return nil, nil, fmt.Errorf("exactly one of --name and --token is required")
	}
	client, err := Dial(ctx, cfg.ServerURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Token != "" {
		_, err = client.AuthenticateGM(cfg.Token)
	} else {
		_, err = client.AuthenticatePlayer(cfg.Name)
	}
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, out, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
