package ops

import (
	"context"

	"github.com/roamlabs/roam/internal/errors"
)

// SyncOutput contains the result of one drain.
type SyncOutput struct {
	Total      int   `json:"total"`
	Synced     int   `json:"synced"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
	Online     bool  `json:"online"`
}

// SyncNow drains the pending queue immediately, the manual "retry now"
// trigger. It runs even while the monitor reports offline (the caller
// asked); failed dispatches are retained for the next attempt.
func (s *Service) SyncNow(ctx context.Context) (*SyncOutput, error) {
	stats, err := s.engine.SyncNow(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &SyncOutput{
		Total:      stats.Total,
		Synced:     stats.Synced,
		Failed:     stats.Failed,
		DurationMs: stats.Duration.Milliseconds(),
		Online:     s.monitor.Online(),
	}, nil
}

// StatusOutput summarizes the offline core's health.
type StatusOutput struct {
	Online       bool `json:"online"`
	Degraded     bool `json:"degraded"` // true when running on the in-memory fallback
	PendingCount int  `json:"pending_count"`
	CachedFacts  int  `json:"cached_facts"`
}

// Status reports connectivity, durability, and queue depth.
func (s *Service) Status(ctx context.Context) (*StatusOutput, error) {
	actions, err := s.store.ListActions(ctx)
	if err != nil {
		return nil, err
	}
	facts, err := s.store.ListFacts(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusOutput{
		Online:       s.monitor.Online(),
		Degraded:     s.degraded,
		PendingCount: len(actions),
		CachedFacts:  len(facts),
	}, nil
}
