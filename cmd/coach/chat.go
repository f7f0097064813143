package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/coachd/internal/agent"
	"github.com/ashureev/coachd/internal/coach"
	"github.com/ashureev/coachd/internal/config"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/prompts"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const cliSessionID = "cli"

// parseModeArgs reads "morning", "evening" or "challenge <n>".
func parseModeArgs(args []string) (prompts.Mode, int, error) {
	mode, err := prompts.ParseMode(args[0])
	if err != nil {
		return "", 0, err
	}
	if mode != prompts.ModeChallenge {
		if len(args) > 1 {
			return "", 0, fmt.Errorf("%s takes no further arguments", mode)
		}
		return mode, 0, nil
	}
	if len(args) != 2 {
		return "", 0, fmt.Errorf("challenge requires a challenge number")
	}
	n, err := parseChallenge(args[1])
	if err != nil {
		return "", 0, err
	}
	return mode, n, nil
}

func newPromptCmd(a *app) *cobra.Command {
	var blank bool
	cmd := &cobra.Command{
		Use:       "prompt morning|evening|challenge <n>",
		Short:     "Print the system prompt a conversation would use",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"morning", "evening", "challenge"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, n, err := parseModeArgs(args)
			if err != nil {
				return err
			}
			layer := persistence.Detached()
			if !blank {
				if layer, err = a.open(); err != nil {
					return err
				}
			}
			ctrl := coach.NewController(layer, nil, nil, a.logger)
			fmt.Fprintln(cmd.OutOrStdout(), ctrl.SystemPrompt(cmd.Context(), a.userID, mode, n))
			return nil
		},
	}
	cmd.Flags().BoolVar(&blank, "blank", false, "render for a fresh user instead of the stored state")
	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "chat [morning|evening|challenge <n>]",
		Short: "Hold a coaching conversation in the terminal",
		Long: `Starts a conversation and reads your replies from stdin, one per line.
Type /reset to start over or /quit to leave. Without a mode, morning is used
before 15:00 and evening after. With --server the model is reached through a
running coachd; otherwise the provider configured in the environment is used.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, n := coach.DefaultMode(time.Now()), 0
			if len(args) > 0 {
				var err error
				if mode, n, err = parseModeArgs(args); err != nil {
					return err
				}
			}
			layer, err := a.open()
			if err != nil {
				return err
			}
			replier, err := a.replier(cmd.Context(), serverURL)
			if err != nil {
				return err
			}
			ctrl := coach.NewController(layer, replier, nil, a.logger)
			return runChat(cmd.Context(), ctrl, a.userID, mode, n, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a coachd server to relay through")
	return cmd
}

// replier returns the relay for chat: a remote server or a local provider.
func (a *app) replier(ctx context.Context, serverURL string) (agent.Replier, error) {
	if serverURL != "" {
		return agent.NewHTTPRelay(serverURL, cliSessionID, &http.Client{Timeout: 2 * time.Minute}), nil
	}
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	processor, err := agent.NewProcessor(ctx, agent.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicBaseURL, cfg.LLM.GoogleAPIKey)
	if err != nil {
		return nil, err
	}
	return agent.NewServiceWithProcessor(processor, cfg.LLM.Timeout, nil, a.logger), nil
}

func runChat(ctx context.Context, ctrl *coach.Controller, userID string, mode prompts.Mode, n int, in io.Reader, out io.Writer) error {
	conv, err := ctrl.Start(ctx, userID, cliSessionID, mode, n)
	if err != nil {
		return err
	}
	printLast(out, conv)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			ctrl.Reset(userID, cliSessionID)
			if conv, err = ctrl.Start(ctx, userID, cliSessionID, mode, n); err != nil {
				return err
			}
			printLast(out, conv)
			continue
		}
		if conv, err = ctrl.Send(ctx, userID, cliSessionID, line); err != nil {
			return err
		}
		printLast(out, conv)
	}
}

func printLast(out io.Writer, conv coach.Conversation) {
	if n := len(conv.Messages); n > 0 && conv.Messages[n-1].Role == domain.RoleAssistant {
		fmt.Fprintf(out, "\n%s\n\n", conv.Messages[n-1].Content)
	}
}
