package agent

import "context"

// Processor performs one completion against a hosted model.
type Processor interface {
	// Complete returns the first text block of the model's reply.
	Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)

	// Name is the display name of the model family, used in user-facing errors.
	Name() string
}

// Replier produces the next assistant turn for a transcript. Service calls a
// Processor in-process; HTTPRelay calls a remote /api/chat.
type Replier interface {
	Reply(ctx context.Context, req ChatRequest) (string, error)
}

var (
	_ Processor = (*AnthropicProcessor)(nil)
	_ Processor = (*GeminiProcessor)(nil)
	_ Replier   = (*Service)(nil)
	_ Replier   = (*HTTPRelay)(nil)
)
