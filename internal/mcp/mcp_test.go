package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roamlabs/roam/internal/config"
	"github.com/roamlabs/roam/internal/ops"
)

// stubRemote accepts every dispatch.
type stubRemote struct {
	calls int
}

func (r *stubRemote) submit(json.RawMessage) error {
	r.calls++
	return nil
}

func (r *stubRemote) SubmitFact(ctx context.Context, key string, data json.RawMessage) error {
	return r.submit(data)
}
func (r *stubRemote) Vote(ctx context.Context, key string, data json.RawMessage) error {
	return r.submit(data)
}
func (r *stubRemote) Comment(ctx context.Context, key string, data json.RawMessage) error {
	return r.submit(data)
}
func (r *stubRemote) SaveFact(ctx context.Context, key string, data json.RawMessage) error {
	return r.submit(data)
}

// testSetup creates a service over a temporary store for testing.
func testSetup(t *testing.T) (*Handlers, *stubRemote) {
	t.Helper()

	remote := &stubRemote{}
	svc, err := ops.NewService(ops.Options{
		BaseDir: t.TempDir(),
		Config:  config.DefaultConfig(),
		Remote:  remote,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return NewHandlers(svc), remote
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleEnqueue(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "enqueue valid action",
			args: map[string]any{
				"type": "submit_fact",
				"data": `{"title":"Hidden Mural"}`,
			},
			wantError: false,
		},
		{
			name: "enqueue without payload",
			args: map[string]any{
				"type": "vote",
			},
			wantError: false,
		},
		{
			name: "enqueue unknown type",
			args: map[string]any{
				"type": "teleport",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "enqueue with malformed payload",
			args: map[string]any{
				"type": "comment",
				"data": "{not json",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleEnqueue(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleCacheFact(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "cache fact with coordinates",
			args: map[string]any{
				"id":            "f1",
				"title":         "Beach Sunset",
				"latitude":      34.0,
				"longitude":     -118.5,
				"vote_count_up": 5,
			},
			wantError: false,
		},
		{
			name: "cache fact without coordinates",
			args: map[string]any{
				"id":    "f2",
				"title": "Indoor Exhibit",
			},
			wantError: false,
		},
		{
			name:      "cache fact without id",
			args:      map[string]any{"title": "orphan"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "cache fact with half coordinates",
			args: map[string]any{
				"id":       "f3",
				"title":    "lost",
				"latitude": 1.0,
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCacheFact(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	seed, err := h.HandleCacheFact(ctx, makeRequest(map[string]any{
		"id":            "f1",
		"title":         "Beach Sunset",
		"vote_count_up": 5,
	}))
	if err != nil || seed.IsError {
		t.Fatalf("setup cache failed: %v %v", err, extractErrorMessage(seed))
	}

	result, err := h.HandleSearch(ctx, makeRequest(map[string]any{"query": "beach"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}

	var output struct {
		Count int `json:"count"`
		Items []struct {
			Score float64 `json:"score"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if output.Count != 1 {
		t.Errorf("expected 1 result, got %d", output.Count)
	}
	if len(output.Items) == 1 && output.Items[0].Score != 15.5 {
		t.Errorf("expected score 15.5, got %v", output.Items[0].Score)
	}

	// Partial geofence arguments are rejected
	result, err = h.HandleSearch(ctx, makeRequest(map[string]any{
		"query":    "beach",
		"latitude": 34.0,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected error for partial geofence")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleSyncFlow(t *testing.T) {
	h, remote := testSetup(t)
	ctx := context.Background()

	for _, typ := range []string{"vote", "comment"} {
		result, err := h.HandleEnqueue(ctx, makeRequest(map[string]any{
			"type": typ,
			"data": `{"fact_id":"f1"}`,
		}))
		if err != nil || result.IsError {
			t.Fatalf("enqueue failed: %v %v", err, extractErrorMessage(result))
		}
	}

	result, err := h.HandleSyncNow(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("sync failed: %v", extractErrorMessage(result))
	}
	if remote.calls != 2 {
		t.Errorf("expected 2 dispatches, got %d", remote.calls)
	}

	result, err = h.HandlePending(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var pending struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &pending); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("expected empty queue after sync, got %d", pending.Count)
	}

	result, err = h.HandleSyncStatus(ctx, makeRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("status failed: %v %v", err, extractErrorMessage(result))
	}
}

func TestHandleListings(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	for _, f := range []map[string]any{
		{"id": "f1", "title": "a", "vote_count_up": 3, "created_at": 100},
		{"id": "f2", "title": "b", "vote_count_up": 30, "created_at": 200},
	} {
		result, err := h.HandleCacheFact(ctx, makeRequest(f))
		if err != nil || result.IsError {
			t.Fatalf("setup cache failed: %v %v", err, extractErrorMessage(result))
		}
	}

	result, err := h.HandleFeatured(ctx, makeRequest(map[string]any{"limit": 1}))
	if err != nil || result.IsError {
		t.Fatalf("featured failed: %v %v", err, extractErrorMessage(result))
	}
	var listing struct {
		Count int `json:"count"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &listing); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if listing.Count != 1 || listing.Items[0].ID != "f2" {
		t.Errorf("expected top-voted f2, got %+v", listing)
	}

	result, err = h.HandleRecent(ctx, makeRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("recent failed: %v %v", err, extractErrorMessage(result))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"fact_search", "nope", "sync_now"})
	if len(unknown) != 1 || unknown[0] != "nope" {
		t.Errorf("expected [nope], got %v", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("expected %d names, got %d", len(toolRegistry), len(names))
	}
}

// assertErrorCode checks that the error payload carries the expected code.
func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("expected error code %q, got %q", expectedCode, code)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
