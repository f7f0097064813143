package coach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/coachd/internal/agent"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/prompts"
)

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBlobs) GetStateBlob(_ context.Context, userID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[userID+"/"+key]
	return d, ok, nil
}

func (m *memBlobs) PutStateBlob(_ context.Context, userID, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID+"/"+key] = append([]byte(nil), data...)
	return nil
}

type fakeReplier struct {
	mu       sync.Mutex
	replies  []string
	err      error
	gate     chan struct{}
	entered  chan struct{}
	requests []agent.ChatRequest
}

func (f *fakeReplier) Reply(ctx context.Context, req agent.ChatRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if n <= len(f.replies) {
		return f.replies[n-1], nil
	}
	return "ok", nil
}

func (f *fakeReplier) lastRequest(t *testing.T) agent.ChatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no relay requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestController(r agent.Replier) (*Controller, *persistence.Layer) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	layer := persistence.New(&memBlobs{data: make(map[string][]byte)}, "", logger)
	return NewController(layer, r, nil, logger), layer
}

func TestStartProducesSingleAssistantTurn(t *testing.T) {
	r := &fakeReplier{replies: []string{"Good morning! What's on your mind?"}}
	c, _ := newTestController(r)

	conv, err := c.Start(context.Background(), "u1", "s1", prompts.ModeMorning, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != domain.RoleAssistant {
		t.Fatalf("expected one assistant turn, got %+v", conv.Messages)
	}
	if conv.Messages[0].Content != "Good morning! What's on your mind?" {
		t.Fatalf("unexpected opening: %q", conv.Messages[0].Content)
	}
	req := r.lastRequest(t)
	if req.Messages == nil || len(req.Messages) != 0 {
		t.Fatalf("start should relay an empty, non-nil transcript, got %#v", req.Messages)
	}
	if !strings.Contains(req.SystemPrompt, "TOP 3") {
		t.Fatalf("expected morning prompt, got %q", req.SystemPrompt)
	}
	if conv.Loading {
		t.Fatal("conversation should not be loading after Start returns")
	}
}

func TestStartFallbackOnRelayFailure(t *testing.T) {
	r := &fakeReplier{err: errors.New("boom")}
	c, layer := newTestController(r)

	conv, err := c.Start(context.Background(), "u1", "s1", prompts.ModeEvening, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != startFailureMessage {
		t.Fatalf("expected fallback turn, got %+v", conv.Messages)
	}
	if n := len(layer.Load(context.Background(), "u1").Entries); n != 0 {
		t.Fatalf("start alone should not persist an entry, got %d", n)
	}
}

func TestStartChallengeFallbackNamesCause(t *testing.T) {
	r := &fakeReplier{err: agent.ErrMissingCredential}
	c, _ := newTestController(r)

	conv, err := c.Start(context.Background(), "u1", "s1", prompts.ModeChallenge, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := conv.Messages[0].Content; got != "Connection error: API key not configured" {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if conv.ChallengeNumber != 3 || conv.ChallengeTitle != "The Rule of 3 Challenge" {
		t.Fatalf("challenge not recorded: %+v", conv)
	}
	if !strings.Contains(r.lastRequest(t).SystemPrompt, "The Rule of 3 Challenge") {
		t.Fatal("expected challenge prompt")
	}
}

func TestStartRejectsUnknownChallenge(t *testing.T) {
	c, _ := newTestController(&fakeReplier{})
	_, err := c.Start(context.Background(), "u1", "s1", prompts.ModeChallenge, 23)
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestSendRelaysTranscriptAndPersists(t *testing.T) {
	r := &fakeReplier{replies: []string{"Hello!", "Let's pick your top 3."}}
	c, layer := newTestController(r)
	ctx := context.Background()

	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conv, err := c.Send(ctx, "u1", "s1", "  I have a lot going on  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(conv.Messages) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(conv.Messages))
	}
	if conv.Messages[1].Content != "I have a lot going on" {
		t.Fatalf("user turn not trimmed: %q", conv.Messages[1].Content)
	}

	req := r.lastRequest(t)
	if len(req.Messages) != 2 || req.Messages[0].Role != agent.RoleAssistant || req.Messages[1].Role != agent.RoleUser {
		t.Fatalf("unexpected relayed transcript: %+v", req.Messages)
	}

	state := layer.Load(ctx, "u1")
	entry := state.EntryFor(conv.Date, domain.EntryMorning, 0)
	if entry == nil {
		t.Fatal("expected a saved morning entry")
	}
	if len(entry.Messages) != 3 {
		t.Fatalf("saved entry has %d messages", len(entry.Messages))
	}

	if _, err := c.Send(ctx, "u1", "s1", "more"); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	state = layer.Load(ctx, "u1")
	if len(state.Entries) != 1 {
		t.Fatalf("repeat exchanges should update one entry, got %d", len(state.Entries))
	}
	if n := len(state.Entries[0].Messages); n != 5 {
		t.Fatalf("expected 5 saved messages, got %d", n)
	}
}

func TestSendChallengeEntryKeyedByNumber(t *testing.T) {
	c, layer := newTestController(&fakeReplier{})
	ctx := context.Background()

	for _, n := range []int{1, 2} {
		if _, err := c.Start(ctx, "u1", "s1", prompts.ModeChallenge, n); err != nil {
			t.Fatalf("Start(%d): %v", n, err)
		}
		if _, err := c.Send(ctx, "u1", "s1", "hi"); err != nil {
			t.Fatalf("Send(%d): %v", n, err)
		}
	}
	state := layer.Load(ctx, "u1")
	if len(state.Entries) != 2 {
		t.Fatalf("expected one entry per challenge, got %d", len(state.Entries))
	}
	for _, e := range state.Entries {
		if e.Type != domain.EntryChallenge || e.ChallengeTitle == "" {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
}

func TestSendFailureAppendsFallbackWithoutSaving(t *testing.T) {
	r := &fakeReplier{}
	c, layer := newTestController(r)
	ctx := context.Background()

	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.mu.Lock()
	r.err = errors.New("upstream down")
	r.mu.Unlock()

	conv, err := c.Send(ctx, "u1", "s1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role != domain.RoleAssistant || last.Content != sendFailureMessage {
		t.Fatalf("expected fallback turn, got %+v", last)
	}
	if n := len(layer.Load(ctx, "u1").Entries); n != 0 {
		t.Fatalf("failed exchange should not persist, got %d entries", n)
	}
}

func TestSendValidation(t *testing.T) {
	c, _ := newTestController(&fakeReplier{})
	ctx := context.Background()

	if _, err := c.Send(ctx, "u1", "s1", "hello"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected ErrNoConversation, got %v", err)
	}
	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Send(ctx, "u1", "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestConcurrentSendIsRejected(t *testing.T) {
	r := &fakeReplier{}
	c, _ := newTestController(r)
	ctx := context.Background()

	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r.mu.Lock()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 1)
	gate, entered := r.gate, r.entered
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "u1", "s1", "first")
		done <- err
	}()
	<-entered

	if conv, err := c.Current("u1", "s1"); err != nil || !conv.Loading {
		t.Fatalf("expected loading conversation, got %+v, %v", conv, err)
	}
	if _, err := c.Send(ctx, "u1", "s1", "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeEvening, 0); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy from Start, got %v", err)
	}
	// Another session of the same user is independent.
	if _, err := c.Current("u1", "s2"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected no conversation for other session, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first Send: %v", err)
	}
	conv, err := c.Current("u1", "s1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if len(conv.Messages) != 3 || conv.Loading {
		t.Fatalf("unexpected conversation after send: %+v", conv)
	}
}

func TestResetDuringSendDropsReply(t *testing.T) {
	r := &fakeReplier{}
	c, layer := newTestController(r)
	ctx := context.Background()

	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.mu.Lock()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 1)
	gate, entered := r.gate, r.entered
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "u1", "s1", "hello")
		done <- err
	}()
	<-entered
	c.Reset("u1", "s1")
	close(gate)

	if err := <-done; !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected ErrNoConversation after reset, got %v", err)
	}
	if _, err := c.Current("u1", "s1"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("reset conversation resurrected: %v", err)
	}
	if n := len(layer.Load(ctx, "u1").Entries); n != 0 {
		t.Fatalf("dropped reply should not persist, got %d entries", n)
	}
}

func TestPruneIdle(t *testing.T) {
	c, _ := newTestController(&fakeReplier{})
	ctx := context.Background()
	if _, err := c.Start(ctx, "u1", "s1", prompts.ModeMorning, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if n := c.PruneIdle(time.Now(), time.Hour); n != 0 {
		t.Fatalf("fresh session pruned: %d", n)
	}
	if n := c.PruneIdle(time.Now().Add(2*time.Hour), time.Hour); n != 1 {
		t.Fatalf("expected idle session pruned, got %d", n)
	}
	if _, err := c.Current("u1", "s1"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected pruned conversation gone, got %v", err)
	}
}

func TestDefaultMode(t *testing.T) {
	tests := []struct {
		hour int
		want prompts.Mode
	}{
		{0, prompts.ModeMorning},
		{14, prompts.ModeMorning},
		{15, prompts.ModeEvening},
		{23, prompts.ModeEvening},
	}
	for _, tt := range tests {
		got := DefaultMode(time.Date(2025, 3, 10, tt.hour, 59, 0, 0, time.Local))
		if got != tt.want {
			t.Errorf("DefaultMode(%02d:59) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
