// coach is the command-line companion to coachd: it reads and edits the
// same stored state and can hold a check-in conversation in the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/store"
	"github.com/spf13/cobra"
)

// app carries the global flags and the lazily opened store.
type app struct {
	dbPath   string
	userID   string
	stateKey string
	verbose  bool

	logger *slog.Logger
	repo   *store.SQLiteStore
	state  *persistence.Layer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "coach",
		Short:         "Daily productivity coaching from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", envOr("DB_PATH", "./data/coach.db"), "path to the SQLite database")
	root.PersistentFlags().StringVar(&a.userID, "user", "local", "user whose state to use")
	root.PersistentFlags().StringVar(&a.stateKey, "state-key", envOr("STATE_KEY", persistence.DefaultKey), "storage key of the state blob")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newStateCmd(a),
		newChallengeCmd(a),
		newGoalCmd(a),
		newParkingCmd(a),
		newEntriesCmd(a),
		newPromptCmd(a),
		newChatCmd(a),
	)
	return root
}

// open connects to the database on first use.
func (a *app) open() (*persistence.Layer, error) {
	if a.state != nil {
		return a.state, nil
	}
	repo, err := store.NewSQLite(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.repo = repo
	a.state = persistence.New(repo, a.stateKey, a.logger)
	return a.state, nil
}

func (a *app) close() {
	if a.repo == nil {
		return
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("Failed to close database", "error", err)
	}
	a.repo = nil
	a.state = nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
