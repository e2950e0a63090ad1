// Package cache implements the local geospatial cache: immutable
// snapshots of remotely-fetched facts, readable with an optional radius
// filter and without any network access.
package cache

import (
	"context"
	"time"

	"github.com/roamlabs/roam/internal/fact"
	"github.com/roamlabs/roam/internal/store"
)

// Cache writes and reads cached fact snapshots. Writes are idempotent
// upserts keyed by the fact id; a write strictly overwrites any prior
// snapshot (last write wins, no merge).
type Cache struct {
	store    store.Store
	maxFacts int
}

// New creates a Cache over the given store. maxFacts caps the collection;
// after every upsert the oldest entries by cached_at beyond the cap are
// evicted. 0 disables eviction.
func New(s store.Store, maxFacts int) *Cache {
	return &Cache{
		store:    s,
		maxFacts: maxFacts,
	}
}

// Put stamps cached_at and upserts the fact, then applies the eviction cap.
func (c *Cache) Put(ctx context.Context, f *fact.CachedFact) error {
	f.CachedAt = time.Now().UnixMilli()
	if err := c.store.PutFact(ctx, f); err != nil {
		return err
	}
	_, err := c.store.PruneFacts(ctx, c.maxFacts)
	return err
}

// GetAll returns cached facts, optionally restricted to a geofence.
// With a filter, only facts with coordinates inside the radius are
// returned; without one, coordinate-less facts are included too.
func (c *Cache) GetAll(ctx context.Context, filter *fact.Geofilter) ([]fact.CachedFact, error) {
	facts, err := c.store.ListFacts(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return facts, nil
	}

	matched := make([]fact.CachedFact, 0, len(facts))
	for _, f := range facts {
		if filter.Contains(&f) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// Get returns a single cached fact by id.
func (c *Cache) Get(ctx context.Context, id string) (*fact.CachedFact, error) {
	return c.store.GetFact(ctx, id)
}

// Featured returns the top n cached facts by vote count.
func (c *Cache) Featured(ctx context.Context, n int) ([]fact.CachedFact, error) {
	return c.store.TopFactsByVotes(ctx, n)
}

// Recent returns the top n cached facts by creation time.
func (c *Cache) Recent(ctx context.Context, n int) ([]fact.CachedFact, error) {
	return c.store.TopFactsByCreated(ctx, n)
}
