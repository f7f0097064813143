package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeProcessor struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	calls    int
	system   string
	messages []ChatMessage
}

func (f *fakeProcessor) Name() string { return "Fake" }

func (f *fakeProcessor) Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls++
	f.system = systemPrompt
	f.messages = append([]ChatMessage(nil), messages...)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.reply, f.err
}

func TestServiceEmptyTranscriptStartsConversation(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{reply: "Good morning! What's on your mind?"}
	svc := NewServiceWithProcessor(proc, 0, nil, nil)

	reply, err := svc.Reply(context.Background(), ChatRequest{Messages: []ChatMessage{}, SystemPrompt: "coach"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != proc.reply || proc.calls != 1 {
		t.Fatalf("expected one call and the model reply, got %q after %d calls", reply, proc.calls)
	}
	want := []ChatMessage{{Role: RoleUser, Content: kickoffMessage}}
	if diff := cmp.Diff(want, proc.messages); diff != "" {
		t.Fatalf("provider messages (-want +got):\n%s", diff)
	}
	if proc.system != "coach" {
		t.Fatalf("system prompt not forwarded: %q", proc.system)
	}
}

func TestServiceForwardsTranscriptInOrder(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{reply: "ok"}
	svc := NewServiceWithProcessor(proc, 0, nil, nil)
	msgs := []ChatMessage{
		{Role: RoleAssistant, Content: "Hi! What's on your mind?"},
		{Role: RoleUser, Content: "Too much."},
	}
	if _, err := svc.Reply(context.Background(), ChatRequest{Messages: msgs}); err != nil {
		t.Fatal(err)
	}
	want := append([]ChatMessage{{Role: RoleUser, Content: kickoffMessage}}, msgs...)
	if diff := cmp.Diff(want, proc.messages); diff != "" {
		t.Fatalf("provider messages (-want +got):\n%s", diff)
	}
}

func TestServiceRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{reply: "never"}
	svc := NewServiceWithProcessor(proc, 0, nil, nil)

	for name, req := range map[string]ChatRequest{
		"nil messages":  {},
		"unknown role":  {Messages: []ChatMessage{{Role: "system", Content: "x"}}},
		"empty content": {Messages: []ChatMessage{{Role: RoleUser, Content: "  "}}},
	} {
		if _, err := svc.Reply(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
	if proc.calls != 0 {
		t.Fatalf("malformed requests must not reach the provider, got %d calls", proc.calls)
	}
}

func TestServiceDoesNotRetry(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{err: errors.New("upstream 529")}
	svc := NewServiceWithProcessor(proc, 0, nil, nil)
	if _, err := svc.Reply(context.Background(), ChatRequest{Messages: []ChatMessage{}}); err == nil {
		t.Fatal("expected error")
	}
	if proc.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", proc.calls)
	}
}

func TestServiceTimeout(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{reply: "late", delay: time.Second}
	svc := NewServiceWithProcessor(proc, 20*time.Millisecond, nil, nil)
	_, err := svc.Reply(context.Background(), ChatRequest{Messages: []ChatMessage{}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewProcessorSelectsProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProcessor(context.Background(), Config{Provider: "anthropic"}, "", "", "")
	if err != nil || p.Name() != "Claude" {
		t.Fatalf("expected anthropic processor, got %v, %v", p, err)
	}
	p, err = NewProcessor(context.Background(), Config{Provider: "gemini"}, "", "", "")
	if err != nil || p.Name() != "Gemini" {
		t.Fatalf("expected gemini processor, got %v, %v", p, err)
	}
	if _, err := NewProcessor(context.Background(), Config{Provider: "other"}, "", "", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
