package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Service relays chat requests to a Processor. It makes exactly one
// provider call per Reply and never retries.
type Service struct {
	processor Processor
	timeout   time.Duration
	log       ConversationLogger
	logger    *slog.Logger
}

// NewServiceWithProcessor creates a new relay service with a custom processor.
func NewServiceWithProcessor(processor Processor, timeout time.Duration, log ConversationLogger, logger *slog.Logger) *Service {
	if log == nil {
		log = noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{processor: processor, timeout: timeout, log: log, logger: logger}
}

// NewProcessor builds the processor selected by cfg.Provider.
func NewProcessor(ctx context.Context, cfg Config, anthropicKey, anthropicBaseURL, googleKey string) (Processor, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicProcessor(anthropicKey, anthropicBaseURL, cfg.Model, cfg.MaxTokens, &http.Client{}), nil
	case "gemini":
		return NewGeminiProcessor(ctx, googleKey, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// ProviderName returns the display name of the underlying model family.
func (s *Service) ProviderName() string {
	return s.processor.Name()
}

// Reply validates req and returns the model's next assistant turn.
func (s *Service) Reply(ctx context.Context, req ChatRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == RoleUser {
		s.log.Log(ConversationLogEvent{
			UserID:     req.UserID,
			SessionID:  req.SessionID,
			Channel:    "relay",
			Direction:  "inbound",
			EventType:  "chat_user_message",
			ContentRaw: req.Messages[n-1].Content,
		})
	}

	start := time.Now()
	reply, err := s.processor.Complete(ctx, req.SystemPrompt, providerMessages(req.Messages))
	if err != nil {
		s.logger.Error("Chat relay call failed",
			"provider", s.processor.Name(),
			"user_id", req.UserID,
			"session_id", req.SessionID,
			"error", err)
		s.log.Log(ConversationLogEvent{
			UserID:    req.UserID,
			SessionID: req.SessionID,
			Channel:   "relay",
			Direction: "outbound",
			EventType: "chat_error",
			Error:     err.Error(),
		})
		return "", err
	}

	s.logger.Debug("Chat relay call completed",
		"provider", s.processor.Name(),
		"user_id", req.UserID,
		"messages", len(req.Messages),
		"duration", time.Since(start))
	s.log.Log(ConversationLogEvent{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Channel:    "relay",
		Direction:  "outbound",
		EventType:  "chat_assistant_message",
		ContentRaw: reply,
	})
	return reply, nil
}
