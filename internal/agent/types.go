// Package agent implements the chat relay: it forwards a transcript and a
// system prompt to a hosted completion model and returns the reply text.
package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingCredential is returned when the provider's API key is unset.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrInvalidRequest is returned for malformed relay requests.
	ErrInvalidRequest = errors.New("invalid chat request")
)

// Message roles accepted by the relay.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// kickoffMessage opens a conversation when the transcript is empty or starts
// with an assistant turn; completion APIs require a leading user turn.
const kickoffMessage = "Hi, I'm ready to start."

// ChatMessage is one role-tagged transcript turn on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the relay request body.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt string        `json:"systemPrompt"`

	// Identity for logging only; not part of the wire format.
	UserID    string `json:"-"`
	SessionID string `json:"-"`
}

// ChatResponse is the relay success body.
type ChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the relay failure body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Validate checks the shape of the transcript. An empty list is valid and
// means "start a new conversation".
func (r *ChatRequest) Validate() error {
	if r.Messages == nil {
		return fmt.Errorf("%w: messages array required", ErrInvalidRequest)
	}
	for i, m := range r.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has invalid role %q", ErrInvalidRequest, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d has empty content", ErrInvalidRequest, i)
		}
	}
	return nil
}

// providerMessages returns the transcript ready for a provider call, with a
// kickoff user turn prepended when needed.
func providerMessages(msgs []ChatMessage) []ChatMessage {
	if len(msgs) > 0 && msgs[0].Role == RoleUser {
		return msgs
	}
	out := make([]ChatMessage, 0, len(msgs)+1)
	out = append(out, ChatMessage{Role: RoleUser, Content: kickoffMessage})
	return append(out, msgs...)
}

// Config holds relay configuration.
type Config struct {
	Provider  string
	Model     string
	MaxTokens int
	Timeout   time.Duration // 0 means the call is bounded only by the caller's context
}

// DefaultConfig returns default relay configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		Model:     DefaultAnthropicModel,
		MaxTokens: 1024,
	}
}
