package ops

import (
	"context"
	"encoding/json"

	"github.com/roamlabs/roam/internal/action"
)

// EnqueueInput contains parameters for the Enqueue operation.
type EnqueueInput struct {
	Type string          `json:"type"` // required: submit_fact|vote|comment|save_fact
	Data json.RawMessage `json:"data,omitempty"`
}

// EnqueueOutput contains the persisted pending action.
type EnqueueOutput struct {
	Action action.PendingAction `json:"action"`
}

// Enqueue records a user intent for later delivery. It returns as soon as
// the action is durably queued; no network I/O happens here.
func (s *Service) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	a, err := s.queue.Enqueue(ctx, action.Type(input.Type), input.Data)
	if err != nil {
		return nil, err
	}
	return &EnqueueOutput{Action: *a}, nil
}

// PendingOutput lists queued actions from the durable store.
type PendingOutput struct {
	Items []action.PendingAction `json:"items"`
	Count int                    `json:"count"`
}

// Pending returns all unsynced actions in sync order. It reads the store,
// not the mirror, so it reflects actions from earlier sessions too.
func (s *Service) Pending(ctx context.Context) (*PendingOutput, error) {
	items, err := s.store.ListActions(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []action.PendingAction{}
	}
	return &PendingOutput{Items: items, Count: len(items)}, nil
}
