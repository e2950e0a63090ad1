package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
	"github.com/roamlabs/roam/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// EnqueueRequest represents the arguments for action_enqueue.
type EnqueueRequest struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// CacheFactRequest represents the arguments for fact_cache.
type CacheFactRequest struct {
	ID           string   `json:"id"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	CategoryID   string   `json:"category_id,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	VoteCountUp  int      `json:"vote_count_up,omitempty"`
	CreatedAt    int64    `json:"created_at,omitempty"`
}

// SearchRequest represents the arguments for fact_search.
type SearchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	RadiusKm   *float64 `json:"radius_km,omitempty"`
}

// ListingRequest represents the arguments for fact_featured and fact_recent.
type ListingRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleEnqueue handles the action_enqueue tool call.
func (h *Handlers) HandleEnqueue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnqueueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var data json.RawMessage
	if input.Data != "" {
		if !json.Valid([]byte(input.Data)) {
			return errorResult(errors.NewInvalidRequest("data must be valid JSON")), nil
		}
		data = json.RawMessage(input.Data)
	}

	result, err := h.svc.Enqueue(ctx, ops.EnqueueInput{
		Type: input.Type,
		Data: data,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePending handles the action_pending tool call.
func (h *Handlers) HandlePending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.Pending(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSyncNow handles the sync_now tool call.
func (h *Handlers) HandleSyncNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.SyncNow(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSyncStatus handles the sync_status tool call.
func (h *Handlers) HandleSyncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.Status(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCacheFact handles the fact_cache tool call.
func (h *Handlers) HandleCacheFact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CacheFactRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.CacheFact(ctx, ops.CacheFactInput{Fact: fact.CachedFact{
		ID:           input.ID,
		Title:        input.Title,
		Description:  input.Description,
		LocationName: input.LocationName,
		CategoryID:   input.CategoryID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		VoteCountUp:  input.VoteCountUp,
		CreatedAt:    input.CreatedAt,
	}})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the fact_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.SearchOffline(ctx, ops.SearchOfflineInput{
		Query:      input.Query,
		Categories: input.Categories,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		RadiusKm:   input.RadiusKm,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFeatured handles the fact_featured tool call.
func (h *Handlers) HandleFeatured(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListingRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.GetFeatured(ctx, ops.ListingInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecent handles the fact_recent tool call.
func (h *Handlers) HandleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListingRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.GetRecent(ctx, ops.ListingInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking paths or
// driver errors.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if rErr, ok := err.(*errors.RoamError); ok {
		errorObj := map[string]any{
			"code":    rErr.Code,
			"message": rErr.Message,
			"status":  rErr.Status,
		}
		if rErr.Code != errors.ErrInternal && rErr.Details != nil {
			errorObj["details"] = rErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
