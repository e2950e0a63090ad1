// Package remote is the thin HTTP adapter for the remote content service.
// The service's API semantics are its own contract; this client only
// delivers one payload per action type and reports success or failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts queued action payloads to the remote service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubmitFact delivers a submit_fact payload.
func (c *Client) SubmitFact(ctx context.Context, key string, data json.RawMessage) error {
	return c.post(ctx, "/facts", key, data)
}

// Vote delivers a vote payload.
func (c *Client) Vote(ctx context.Context, key string, data json.RawMessage) error {
	return c.post(ctx, "/votes", key, data)
}

// Comment delivers a comment payload.
func (c *Client) Comment(ctx context.Context, key string, data json.RawMessage) error {
	return c.post(ctx, "/comments", key, data)
}

// SaveFact delivers a save_fact payload.
func (c *Client) SaveFact(ctx context.Context, key string, data json.RawMessage) error {
	return c.post(ctx, "/saved-facts", key, data)
}

// post sends one payload. Any 2xx response is success; the idempotency
// key travels in a header so the service can deduplicate replays.
func (c *Client) post(ctx context.Context, path, key string, data json.RawMessage) error {
	if c.baseURL == "" {
		return fmt.Errorf("no remote base URL configured")
	}

	body := data
	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the error message
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
