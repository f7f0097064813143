package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ashureev/coachd/internal/identity"
)

// HTTPRelay is a Replier that calls a remote relay's /api/chat endpoint.
type HTTPRelay struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewHTTPRelay creates a relay client for the server at baseURL.
func NewHTTPRelay(baseURL, sessionID string, httpClient *http.Client) *HTTPRelay {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPRelay{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		httpClient: httpClient,
	}
}

// Reply implements Replier.
func (c *HTTPRelay) Reply(ctx context.Context, req ChatRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		httpReq.Header.Set(identity.SessionHeaderName, c.sessionID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("relay request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure ErrorResponse
		if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
			if failure.Code == "configuration_error" {
				return "", fmt.Errorf("%w: %s", ErrMissingCredential, failure.Error)
			}
			return "", fmt.Errorf("relay returned status %d: %s", resp.StatusCode, failure.Error)
		}
		return "", fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var ok ChatResponse
	if err := json.Unmarshal(data, &ok); err != nil {
		return "", fmt.Errorf("parse relay response: %w", err)
	}
	return ok.Message, nil
}
