// Package queue implements the offline action queue: user intents are
// appended to the durable store and mirrored in memory for immediate
// feedback. Delivery is the sync engine's job, so enqueue latency never
// depends on network latency.
package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/store"
)

// Scheduler is the optional platform background-task collaborator: a
// best-effort hook to request a wake-up when connectivity returns.
// Absence (nil) or failure is never an error.
type Scheduler interface {
	Schedule(tag string) error
}

// SyncTag identifies the background sync request to the scheduler.
const SyncTag = "action-sync"

// Queue appends pending actions to the durable store and keeps an
// in-memory mirror of unsynced records. The mirror is a projection; the
// store stays authoritative and the mirror can be rebuilt from it.
type Queue struct {
	store     store.Store
	scheduler Scheduler
	log       *logrus.Logger

	mu     sync.Mutex
	mirror []action.PendingAction
}

// New creates a Queue over the given store. The scheduler may be nil.
func New(s store.Store, scheduler Scheduler, log *logrus.Logger) *Queue {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Queue{
		store:     s,
		scheduler: scheduler,
		log:       log,
	}
}

// Enqueue stamps and persists a new pending action, mirrors it, and
// opportunistically requests a background sync.
func (q *Queue) Enqueue(ctx context.Context, typ action.Type, data json.RawMessage) (*action.PendingAction, error) {
	if !typ.Valid() {
		return nil, errors.NewInvalidRequest("type must be one of: submit_fact, vote, comment, save_fact")
	}

	a, err := action.New(typ, data)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	id, err := q.store.PutAction(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id

	q.mu.Lock()
	q.mirror = append(q.mirror, *a)
	q.mu.Unlock()

	// Best-effort background sync hint; swallow and continue on failure
	if q.scheduler != nil {
		if err := q.scheduler.Schedule(SyncTag); err != nil {
			q.log.WithError(err).Debug("background sync registration failed")
		}
	}

	return a, nil
}

// Pending returns a copy of the in-memory mirror.
func (q *Queue) Pending() []action.PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]action.PendingAction, len(q.mirror))
	copy(out, q.mirror)
	return out
}

// Reload rebuilds the mirror from the durable store, picking up actions
// enqueued before the current session started.
func (q *Queue) Reload(ctx context.Context) error {
	actions, err := q.store.ListActions(ctx)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.mirror = actions
	q.mu.Unlock()
	return nil
}

// Remove drops a synced action from the mirror. The durable delete is the
// sync engine's responsibility.
func (q *Queue) Remove(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.mirror {
		if a.ID == id {
			q.mirror = append(q.mirror[:i], q.mirror[i+1:]...)
			return
		}
	}
}
