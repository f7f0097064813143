package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T, proc Processor, limit int) http.Handler {
	t.Helper()
	limiter := NewRateLimiter(limit, time.Minute)
	t.Cleanup(limiter.Close)
	h := NewHandler(NewServiceWithProcessor(proc, 0, nil, nil), limiter, 1024, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, got
}

func TestHandleChat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		proc       *fakeProcessor
		body       string
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{
			name:       "success",
			proc:       &fakeProcessor{reply: "Hello there"},
			body:       `{"messages":[{"role":"user","content":"hi"}],"systemPrompt":"coach"}`,
			wantStatus: http.StatusOK,
			wantKey:    "message",
			wantValue:  "Hello there",
		},
		{
			name:       "empty list starts a conversation",
			proc:       &fakeProcessor{reply: "Good morning!"},
			body:       `{"messages":[],"systemPrompt":"coach"}`,
			wantStatus: http.StatusOK,
			wantKey:    "message",
			wantValue:  "Good morning!",
		},
		{
			name:       "missing messages",
			proc:       &fakeProcessor{},
			body:       `{"systemPrompt":"coach"}`,
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantValue:  "Messages array required",
		},
		{
			name:       "malformed json",
			proc:       &fakeProcessor{},
			body:       `{"messages":`,
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantValue:  "invalid request body",
		},
		{
			name:       "missing credential",
			proc:       &fakeProcessor{err: fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrMissingCredential)},
			body:       `{"messages":[]}`,
			wantStatus: http.StatusInternalServerError,
			wantKey:    "code",
			wantValue:  "configuration_error",
		},
		{
			name:       "remote failure",
			proc:       &fakeProcessor{err: errors.New("connection reset")},
			body:       `{"messages":[]}`,
			wantStatus: http.StatusInternalServerError,
			wantKey:    "error",
			wantValue:  "Failed to get response from Fake",
		},
		{
			name:       "body too large",
			proc:       &fakeProcessor{},
			body:       `{"messages":[{"role":"user","content":"` + strings.Repeat("x", 2048) + `"}]}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantKey:    "error",
			wantValue:  "request body too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, got := postChat(t, newTestRouter(t, tt.proc, 10), tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", rec.Code, tt.wantStatus, got)
			}
			if got[tt.wantKey] != tt.wantValue {
				t.Fatalf("%s = %q, want %q", tt.wantKey, got[tt.wantKey], tt.wantValue)
			}
		})
	}
}

func TestHandleChatRateLimit(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeProcessor{reply: "ok"}, 2)
	for i := 0; i < 2; i++ {
		if rec, _ := postChat(t, h, `{"messages":[]}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec, got := postChat(t, h, `{"messages":[]}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d (%v)", rec.Code, got)
	}
}

func TestHTTPRelayAgainstHandler(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{reply: "Relayed reply"}
	srv := httptest.NewServer(newTestRouter(t, proc, 10))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL+"/", "tab-7", srv.Client())
	reply, err := relay.Reply(context.Background(), ChatRequest{
		Messages:     []ChatMessage{{Role: RoleUser, Content: "hello"}},
		SystemPrompt: "coach",
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "Relayed reply" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestHTTPRelaySurfacesConfigurationError(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{err: ErrMissingCredential}
	srv := httptest.NewServer(newTestRouter(t, proc, 10))
	defer srv.Close()

	_, err := NewHTTPRelay(srv.URL, "", srv.Client()).Reply(context.Background(), ChatRequest{Messages: []ChatMessage{}})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	_, err = NewHTTPRelay(srv.URL, "", srv.Client()).Reply(context.Background(), ChatRequest{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected local validation error, got %v", err)
	}
}
