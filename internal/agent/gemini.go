package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the Gemini model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiProcessor calls Gemini through the genai SDK.
type GeminiProcessor struct {
	model     string
	maxTokens int
	generate  generateFunc // nil when no API key is configured
}

// NewGeminiProcessor creates a processor. An empty apiKey is accepted; it is
// reported as ErrMissingCredential on each call.
func NewGeminiProcessor(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiProcessor, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	p := &GeminiProcessor{model: model, maxTokens: maxTokens}
	if apiKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	p.generate = client.Models.GenerateContent
	return p, nil
}

// Name implements Processor.
func (p *GeminiProcessor) Name() string { return "Gemini" }

// Complete implements Processor.
func (p *GeminiProcessor) Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error) {
	if p.generate == nil {
		return "", fmt.Errorf("%w: GOOGLE_API_KEY is not set", ErrMissingCredential)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.maxTokens),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := p.generate(ctx, p.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini response has no text content")
	}
	return text, nil
}
