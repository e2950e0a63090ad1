// Package store implements the durable store: a local, transactional
// key-value store with two independently-indexed collections,
// pending_actions and cached_facts. It survives process restarts.
//
// Store is an interface so callers can degrade to the in-memory
// implementation when the SQLite file cannot be opened, and so tests can
// substitute a fake without touching global state.
package store

import (
	"context"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/fact"
)

// Store is the single source of truth for both collections. In-memory
// mirrors held by other components are projections rebuildable from it.
type Store interface {
	// PutAction persists a pending action and returns the assigned id.
	PutAction(ctx context.Context, a *action.PendingAction) (int64, error)

	// ListActions returns all pending actions in the order they were
	// durably written.
	ListActions(ctx context.Context) ([]action.PendingAction, error)

	// DeleteAction removes a pending action by id. Deleting a missing id
	// is not an error; the drain loop may race a concurrent caller.
	DeleteAction(ctx context.Context, id int64) error

	// PutFact upserts a cached fact by id (last write wins).
	PutFact(ctx context.Context, f *fact.CachedFact) error

	// GetFact returns a cached fact by id, or NOT_FOUND.
	GetFact(ctx context.Context, id string) (*fact.CachedFact, error)

	// ListFacts returns all cached facts.
	ListFacts(ctx context.Context) ([]fact.CachedFact, error)

	// TopFactsByVotes returns up to limit facts ordered by vote_count_up
	// descending.
	TopFactsByVotes(ctx context.Context, limit int) ([]fact.CachedFact, error)

	// TopFactsByCreated returns up to limit facts ordered by created_at
	// descending.
	TopFactsByCreated(ctx context.Context, limit int) ([]fact.CachedFact, error)

	// PruneFacts deletes the oldest facts by cached_at beyond max entries
	// and returns how many were removed. max <= 0 disables pruning.
	PruneFacts(ctx context.Context, max int) (int, error)

	Close() error
}
