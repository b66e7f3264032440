package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/gmscreen/initiative/internal/ws"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the roster in initiative order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			snap, err := client.Refresh()
			if err != nil {
				return err
			}
			return out.Snapshot(snap)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var (
		dex    int
		wis    int
		roll   int
		hidden bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an NPC (GM only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			req := ws.CreateRequest{
				Name:   args[0],
				Dex:    dex,
				Wis:    wis,
				Hidden: hidden,
			}
			if cmd.Flags().Changed("roll") {
				req.Roll = &roll
			}
			view, err := client.Create(req)
			if err != nil {
				return err
			}
			out.Message("created %s", view.Name)
			return out.Character(view)
		},
	}

	cmd.Flags().IntVar(&dex, "dex", 1, "dexterity modifier")
	cmd.Flags().IntVar(&wis, "wis", 1, "wisdom modifier")
	cmd.Flags().IntVar(&roll, "roll", 0, "initiative roll")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide from players")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		dex       int
		wis       int
		roll      int
		clearRoll bool
		hidden    bool
		rename    string
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a character's stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			req := ws.UpdateRequest{Name: args[0]}
			if cmd.Flags().Changed("dex") {
				req.Dex = &dex
			}
			if cmd.Flags().Changed("wis") {
				req.Wis = &wis
			}
			switch {
			case clearRoll:
				req.Roll = json.RawMessage("null")
			case cmd.Flags().Changed("roll"):
				data, err := json.Marshal(roll)
				if err != nil {
					return err
				}
				req.Roll = data
			}
			if cmd.Flags().Changed("hidden") {
				req.Hidden = &hidden
			}
			if cmd.Flags().Changed("rename") {
				req.Rename = &rename
			}
			view, err := client.Update(req)
			if err != nil {
				return err
			}
			return out.Character(view)
		},
	}

	cmd.Flags().IntVar(&dex, "dex", 0, "dexterity modifier")
	cmd.Flags().IntVar(&wis, "wis", 0, "wisdom modifier")
	cmd.Flags().IntVar(&roll, "roll", 0, "initiative roll")
	cmd.Flags().BoolVar(&clearRoll, "clear-roll", false, "reset the roll to unrolled (GM only)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide from players")
	cmd.Flags().StringVar(&rename, "rename", "", "new name")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a character (GM only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, out, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Delete(args[0]); err != nil {
				return err
			}
			out.Message("deleted %s", args[0])
			return nil
		},
	}
}
