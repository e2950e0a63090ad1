// Package syncer drains the offline action queue against the remote
// service: a sequential, ordered drain that removes each record only on
// confirmed success.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/netmon"
	"github.com/roamlabs/roam/internal/queue"
	"github.com/roamlabs/roam/internal/store"
)

// Remote is the external collaborator that accepts user intents. One call
// per action type; the engine only needs a success/failure signal. The
// idempotency key lets the service deduplicate at-least-once replays.
type Remote interface {
	SubmitFact(ctx context.Context, key string, data json.RawMessage) error
	Vote(ctx context.Context, key string, data json.RawMessage) error
	Comment(ctx context.Context, key string, data json.RawMessage) error
	SaveFact(ctx context.Context, key string, data json.RawMessage) error
}

// Stats holds the outcome of one drain.
type Stats struct {
	Total    int           `json:"total"`
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// dispatchFunc delivers one action payload to the remote service.
type dispatchFunc func(ctx context.Context, key string, data json.RawMessage) error

// Engine drains pending actions when triggered by a connectivity
// transition or an explicit SyncNow call.
type Engine struct {
	store    store.Store
	queue    *queue.Queue
	dispatch map[action.Type]dispatchFunc
	log      *logrus.Logger
}

// New creates a sync engine. The queue may be nil when no mirror needs
// maintaining (e.g. one-shot CLI runs).
func New(s store.Store, q *queue.Queue, remote Remote, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store: s,
		queue: q,
		dispatch: map[action.Type]dispatchFunc{
			action.TypeSubmitFact: remote.SubmitFact,
			action.TypeVote:       remote.Vote,
			action.TypeComment:    remote.Comment,
			action.TypeSaveFact:   remote.SaveFact,
		},
		log: log,
	}
}

// Attach wires the engine to the monitor's OFFLINE -> ONLINE edge.
func (e *Engine) Attach(m *netmon.Monitor) {
	m.OnOnline(func() {
		if _, err := e.SyncNow(context.Background()); err != nil {
			e.log.WithError(err).Warn("sync after reconnect failed")
		}
	})
}

// SyncNow reads the full durable set of pending actions and processes
// them one at a time, in the order they were written. Each action is
// deleted only after the remote confirms it; a failed action is left
// untouched and the drain continues, so one poisoned action never blocks
// the rest. A crash between remote acceptance and local delete yields an
// at-least-once replay on the next drain.
func (e *Engine) SyncNow(ctx context.Context) (*Stats, error) {
	start := time.Now()

	// Read from the store, not the mirror, to include actions enqueued
	// before this session started.
	actions, err := e.store.ListActions(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(actions)}

	for i := range actions {
		a := &actions[i]

		if err := e.dispatchOne(ctx, a); err != nil {
			e.log.WithFields(logrus.Fields{
				"action_id":   a.ID,
				"action_type": a.Type,
			}).WithError(err).Warn("dispatch failed, action retained")
			stats.Failed++
			continue
		}

		if err := e.store.DeleteAction(ctx, a.ID); err != nil {
			// The remote accepted the action; the next drain will resend
			// it and the idempotency key covers the duplicate.
			e.log.WithFields(logrus.Fields{
				"action_id":   a.ID,
				"action_type": a.Type,
			}).WithError(err).Warn("delete after dispatch failed")
			stats.Failed++
			continue
		}

		if e.queue != nil {
			e.queue.Remove(a.ID)
		}
		stats.Synced++
	}

	stats.Duration = time.Since(start)
	e.log.WithFields(logrus.Fields{
		"total":    stats.Total,
		"synced":   stats.Synced,
		"failed":   stats.Failed,
		"duration": stats.Duration,
	}).Info("sync complete")

	return stats, nil
}

// dispatchOne routes one action through the dispatch table for its type.
func (e *Engine) dispatchOne(ctx context.Context, a *action.PendingAction) error {
	fn, ok := e.dispatch[a.Type]
	if !ok {
		// Unknown types stay queued; a newer app version may understand them.
		return fmt.Errorf("unknown action type: %s", a.Type)
	}
	return fn(ctx, a.IdempotencyKey, a.Data)
}
