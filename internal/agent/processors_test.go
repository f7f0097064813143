package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"
)

func TestAnthropicProcessorRequestShape(t *testing.T) {
	t.Parallel()

	gotCh := make(chan anthropicRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var got anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotCh <- got
		_, _ = w.Write([]byte(`{"content":[{"type":"thinking","text":"hmm"},{"type":"text","text":"Good morning!"},{"type":"text","text":"ignored"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropicProcessor("secret", srv.URL+"/", "", 0, srv.Client())
	msgs := []ChatMessage{{Role: RoleUser, Content: "hi"}}
	reply, err := p.Complete(context.Background(), "be kind", msgs)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Good morning!" {
		t.Fatalf("expected first text block, got %q", reply)
	}

	want := anthropicRequest{Model: DefaultAnthropicModel, MaxTokens: 1024, System: "be kind", Messages: msgs}
	if diff := cmp.Diff(want, <-gotCh); diff != "" {
		t.Fatalf("request body (-want +got):\n%s", diff)
	}
}

func TestAnthropicProcessorErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	missing := NewAnthropicProcessor("", srv.URL, "", 0, srv.Client())
	if _, err := missing.Complete(context.Background(), "", nil); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("no call should be made without a credential")
	}

	bad := NewAnthropicProcessor("wrong", srv.URL, "", 0, srv.Client())
	_, err := bad.Complete(context.Background(), "", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	if err == nil || errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestGeminiProcessor(t *testing.T) {
	t.Parallel()

	missing, err := NewGeminiProcessor(context.Background(), "", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := missing.Complete(context.Background(), "", nil); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	var gotModel string
	var gotContents []*genai.Content
	var gotConfig *genai.GenerateContentConfig
	p := &GeminiProcessor{
		model:     DefaultGeminiModel,
		maxTokens: 512,
		generate: func(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{Text: "Evening!"}}},
				}},
			}, nil
		},
	}

	reply, err := p.Complete(context.Background(), "reflect", []ChatMessage{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "done for today"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Evening!" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if gotModel != DefaultGeminiModel {
		t.Fatalf("unexpected model %q", gotModel)
	}
	if len(gotContents) != 3 || gotContents[1].Role != genai.RoleModel {
		t.Fatalf("assistant turns should map to the model role: %+v", gotContents)
	}
	if gotConfig.MaxOutputTokens != 512 || gotConfig.SystemInstruction == nil {
		t.Fatalf("unexpected config: %+v", gotConfig)
	}
}
