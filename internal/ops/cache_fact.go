package ops

import (
	"context"
	"strings"

	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
)

// CacheFactInput contains the snapshot to cache.
type CacheFactInput struct {
	Fact fact.CachedFact `json:"fact"`
}

// CacheFactOutput contains the stored snapshot's identity and stamp.
type CacheFactOutput struct {
	ID       string `json:"id"`
	CachedAt int64  `json:"cached_at"`
}

// CacheFact upserts a remotely-fetched fact snapshot into the local
// cache. The write is idempotent per id; a repeat call overwrites the
// prior snapshot entirely.
func (s *Service) CacheFact(ctx context.Context, input CacheFactInput) (*CacheFactOutput, error) {
	f := input.Fact
	if strings.TrimSpace(f.ID) == "" {
		return nil, errors.NewInvalidRequest("fact id is required")
	}
	// A fact with one coordinate but not the other cannot be placed
	if (f.Latitude == nil) != (f.Longitude == nil) {
		return nil, errors.NewInvalidRequest("latitude and longitude must be set together")
	}

	if err := s.cache.Put(ctx, &f); err != nil {
		return nil, err
	}
	return &CacheFactOutput{ID: f.ID, CachedAt: f.CachedAt}, nil
}
