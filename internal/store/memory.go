package store

import (
	"context"
	"sort"
	"sync"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
)

// Memory is an in-memory Store with the same semantics as the SQLite
// implementation but no durability. It backs the degraded mode used when
// the SQLite file cannot be opened, and doubles as a test fake.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	actions []action.PendingAction
	facts   map[string]fact.CachedFact
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		facts:  make(map[string]fact.CachedFact),
	}
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// PutAction appends a copy of the action and assigns the next id.
func (m *Memory) PutAction(ctx context.Context, a *action.PendingAction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *a
	stored.ID = m.nextID
	stored.Data = append([]byte(nil), a.Data...)
	m.nextID++
	m.actions = append(m.actions, stored)

	return stored.ID, nil
}

// ListActions returns copies of all pending actions in insertion order.
func (m *Memory) ListActions(ctx context.Context) ([]action.PendingAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.actions) == 0 {
		return nil, nil
	}
	out := make([]action.PendingAction, len(m.actions))
	for i, a := range m.actions {
		out[i] = a
		out[i].Data = append([]byte(nil), a.Data...)
	}
	return out, nil
}

// DeleteAction removes a pending action by id.
func (m *Memory) DeleteAction(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.actions {
		if a.ID == id {
			m.actions = append(m.actions[:i], m.actions[i+1:]...)
			return nil
		}
	}
	return nil
}

// PutFact upserts a copy of the fact by id.
func (m *Memory) PutFact(ctx context.Context, f *fact.CachedFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.facts[f.ID] = copyFact(f)
	return nil
}

// GetFact returns a cached fact by id.
func (m *Memory) GetFact(ctx context.Context, id string) (*fact.CachedFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.facts[id]
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	out := copyFact(&f)
	return &out, nil
}

// ListFacts returns all cached facts, newest cached_at first.
func (m *Memory) ListFacts(ctx context.Context) ([]fact.CachedFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	facts := m.snapshotLocked()
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].CachedAt != facts[j].CachedAt {
			return facts[i].CachedAt > facts[j].CachedAt
		}
		return facts[i].ID < facts[j].ID
	})
	return facts, nil
}

// TopFactsByVotes returns up to limit facts ordered by vote count.
func (m *Memory) TopFactsByVotes(ctx context.Context, limit int) ([]fact.CachedFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	facts := m.snapshotLocked()
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].VoteCountUp != facts[j].VoteCountUp {
			return facts[i].VoteCountUp > facts[j].VoteCountUp
		}
		return facts[i].ID < facts[j].ID
	})
	return clampFacts(facts, limit), nil
}

// TopFactsByCreated returns up to limit facts ordered by creation time.
func (m *Memory) TopFactsByCreated(ctx context.Context, limit int) ([]fact.CachedFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	facts := m.snapshotLocked()
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].CreatedAt != facts[j].CreatedAt {
			return facts[i].CreatedAt > facts[j].CreatedAt
		}
		return facts[i].ID < facts[j].ID
	})
	return clampFacts(facts, limit), nil
}

// PruneFacts deletes the oldest facts by cached_at beyond max entries.
func (m *Memory) PruneFacts(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.facts) <= max {
		return 0, nil
	}

	facts := make([]fact.CachedFact, 0, len(m.facts))
	for _, f := range m.facts {
		facts = append(facts, f)
	}
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].CachedAt != facts[j].CachedAt {
			return facts[i].CachedAt > facts[j].CachedAt
		}
		return facts[i].ID < facts[j].ID
	})

	pruned := 0
	for _, f := range facts[max:] {
		delete(m.facts, f.ID)
		pruned++
	}
	return pruned, nil
}

// snapshotLocked copies all facts; callers must hold at least the read lock.
func (m *Memory) snapshotLocked() []fact.CachedFact {
	facts := make([]fact.CachedFact, 0, len(m.facts))
	for _, f := range m.facts {
		facts = append(facts, copyFact(&f))
	}
	return facts
}

func clampFacts(facts []fact.CachedFact, limit int) []fact.CachedFact {
	if limit >= 0 && len(facts) > limit {
		facts = facts[:limit]
	}
	return facts
}

func copyFact(f *fact.CachedFact) fact.CachedFact {
	out := *f
	if f.Latitude != nil {
		lat := *f.Latitude
		out.Latitude = &lat
	}
	if f.Longitude != nil {
		lon := *f.Longitude
		out.Longitude = &lon
	}
	return out
}
