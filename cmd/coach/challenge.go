package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/prompts"
	"github.com/spf13/cobra"
)

func parseChallenge(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || !curriculum.Valid(n) {
		return 0, fmt.Errorf("challenge must be a number from 1 to %d, got %q", curriculum.Size, arg)
	}
	return n, nil
}

func newChallengeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Track progress through the challenges",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every challenge with its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			s := layer.Load(cmd.Context(), a.userID)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\t#\tTITLE\tSTATUS")
			for _, c := range s.Challenges {
				marker := ""
				if c.ChallengeNumber == s.CurrentChallenge {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", marker, c.ChallengeNumber, c.Title, c.Status)
			}
			return tw.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <n>",
		Short: "Show a challenge's reference material and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseChallenge(args[0])
			if err != nil {
				return err
			}
			content, err := curriculum.ContentFor(n)
			if err != nil {
				return err
			}
			layer, err := a.open()
			if err != nil {
				return err
			}
			progress := layer.Load(cmd.Context(), a.userID).Challenge(n)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Challenge %d: %s\n", n, content.Title)
			fmt.Fprintf(w, "Part %d: %s\n", content.Part, curriculum.PartName(content.Part))
			fmt.Fprintf(w, "Status: %s\n\n", progress.Status)
			fmt.Fprintln(w, prompts.Description(n))
			fmt.Fprintln(w, "\nSteps:")
			for i, step := range content.Steps {
				fmt.Fprintf(w, "  %d. %s\n", i+1, step)
			}
			if progress.Notes != "" {
				fmt.Fprintf(w, "\nNotes: %s\n", progress.Notes)
			}
			return nil
		},
	}

	var notes string
	status := &cobra.Command{
		Use:   "status <n> <not_started|in_progress|completed>",
		Short: "Set a challenge's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseChallenge(args[0])
			if err != nil {
				return err
			}
			layer, err := a.open()
			if err != nil {
				return err
			}
			st := domain.ChallengeStatus(strings.ToLower(args[1]))
			s, err := layer.Update(cmd.Context(), a.userID, func(s *domain.UserState) error {
				return s.UpdateChallengeProgress(n, st, notes)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Challenge %d is now %s. Current challenge: %d.\n", n, st, s.CurrentChallenge)
			return nil
		},
	}
	status.Flags().StringVar(&notes, "notes", "", "notes to store with the challenge")

	current := &cobra.Command{
		Use:   "current <n>",
		Short: "Set the current challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseChallenge(args[0])
			if err != nil {
				return err
			}
			layer, err := a.open()
			if err != nil {
				return err
			}
			if _, err := layer.Update(cmd.Context(), a.userID, func(s *domain.UserState) error {
				return s.SetCurrentChallenge(n)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current challenge set to %d.\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, show, status, current)
	return cmd
}
