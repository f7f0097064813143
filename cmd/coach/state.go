package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show, export or import the stored state",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print a summary of the stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			s := layer.Load(cmd.Context(), a.userID)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Current challenge: %d\n", s.CurrentChallenge)
			fmt.Fprintf(w, "Completed challenges: %d of %d\n", s.CompletedCount(), len(s.Challenges))
			fmt.Fprintf(w, "Entries: %d\n", len(s.Entries))
			fmt.Fprintf(w, "Goals this week: %d\n", len(s.CurrentWeekGoals()))
			fmt.Fprintf(w, "Parking lot: %d active\n", len(s.ActiveParkingLotItems()))
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the full state as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), layer.Load(cmd.Context(), a.userID))
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored state with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			layer, err := a.open()
			if err != nil {
				return err
			}
			s, err := layer.Import(cmd.Context(), a.userID, data)
			if err != nil {
				return fmt.Errorf("failed to import state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported state with %d entries.\n", len(s.Entries))
			return nil
		},
	}

	cmd.AddCommand(show, export, imp)
	return cmd
}
