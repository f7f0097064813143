package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ashureev/coachd/internal/domain"
	"github.com/spf13/cobra"
)

func newGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage this week's goals",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List this week's goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			goals := layer.Load(cmd.Context(), a.userID).CurrentWeekGoals()
			w := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintf(w, "No goals for the week of %s.\n", domain.CurrentWeekKey())
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tGOAL")
			for _, g := range goals {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Status, g.Text)
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a goal for this week",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var goal domain.WeeklyGoal
			err := a.update(cmd, func(s *domain.UserState) (err error) {
				goal, err = s.AddWeeklyGoal(strings.Join(args, " "))
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s for the week of %s.\n", goal.ID, goal.WeekOf)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <id> <pending|in_progress|completed>",
		Short: "Set a goal's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := domain.GoalStatus(strings.ToLower(args[1]))
			return a.updateGoal(cmd, args[0], domain.GoalUpdate{Status: &st})
		},
	}

	edit := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change a goal's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return a.updateGoal(cmd, args[0], domain.GoalUpdate{Text: &text})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.update(cmd, func(s *domain.UserState) error {
				return s.DeleteWeeklyGoal(args[0])
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, status, edit, del)
	return cmd
}

func (a *app) updateGoal(cmd *cobra.Command, id string, update domain.GoalUpdate) error {
	var goal domain.WeeklyGoal
	err := a.update(cmd, func(s *domain.UserState) (err error) {
		goal, err = s.UpdateWeeklyGoal(id, update)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Goal %s: %s [%s]\n", goal.ID, goal.Text, goal.Status)
	return nil
}

func newParkingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parking",
		Short: "Manage the parking lot of deferred items",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active parking-lot items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			items := layer.Load(cmd.Context(), a.userID).ActiveParkingLotItems()
			w := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(w, "The parking lot is empty.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tADDED\tSOURCE\tITEM")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ID, domain.DateKey(item.AddedAt), item.Source, item.Text)
			}
			return tw.Flush()
		},
	}

	var source string
	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Defer an item to the parking lot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item domain.ParkingLotItem
			err := a.update(cmd, func(s *domain.UserState) (err error) {
				item, err = s.AddParkingLotItem(strings.Join(args, " "), source)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Parked %s.\n", item.ID)
			return nil
		},
	}
	add.Flags().StringVar(&source, "source", "", "where the item came from, such as morning")

	transition := func(use, short, verb string, fn func(*domain.UserState, string) (domain.ParkingLotItem, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.update(cmd, func(s *domain.UserState) error {
					_, err := fn(s, args[0])
					return err
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", verb, args[0])
				return nil
			},
		}
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an item from the parking lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.update(cmd, func(s *domain.UserState) error {
				return s.DeleteParkingLotItem(args[0])
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(
		list,
		add,
		transition("promote", "Mark an item as promoted to a priority", "Promoted", (*domain.UserState).PromoteParkingLotItem),
		transition("resolve", "Mark an item as resolved", "Resolved", (*domain.UserState).ResolveParkingLotItem),
		del,
	)
	return cmd
}

func newEntriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "Review saved conversations by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layer, err := a.open()
			if err != nil {
				return err
			}
			days := layer.Load(cmd.Context(), a.userID).EntriesByDate()
			w := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(w, "No entries yet.")
				return nil
			}
			for _, day := range days {
				fmt.Fprintln(w, day.Date)
				for _, e := range day.Entries {
					label := string(e.Type)
					if e.Type == domain.EntryChallenge {
						label = fmt.Sprintf("challenge %d: %s", e.ChallengeNumber, e.ChallengeTitle)
					}
					fmt.Fprintf(w, "  %s (%d messages)\n", label, len(e.Messages))
				}
			}
			return nil
		},
	}
}

// update runs fn against the user's state and saves it.
func (a *app) update(cmd *cobra.Command, fn func(*domain.UserState) error) error {
	layer, err := a.open()
	if err != nil {
		return err
	}
	_, err = layer.Update(cmd.Context(), a.userID, fn)
	return err
}
