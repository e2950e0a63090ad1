package ops

import (
	"context"

	"github.com/roamlabs/roam/internal/fact"
)

// ListingInput contains parameters for featured/recent listings.
type ListingInput struct {
	Limit int `json:"limit,omitempty"` // default: config feature_limit
}

// ListingOutput contains the listed facts.
type ListingOutput struct {
	Items []fact.CachedFact `json:"items"`
	Count int               `json:"count"`
}

// GetFeatured returns the top cached facts by vote count.
func (s *Service) GetFeatured(ctx context.Context, input ListingInput) (*ListingOutput, error) {
	items, err := s.cache.Featured(ctx, s.listingLimit(input.Limit))
	if err != nil {
		return nil, err
	}
	return newListingOutput(items), nil
}

// GetRecent returns the top cached facts by creation time.
func (s *Service) GetRecent(ctx context.Context, input ListingInput) (*ListingOutput, error) {
	items, err := s.cache.Recent(ctx, s.listingLimit(input.Limit))
	if err != nil {
		return nil, err
	}
	return newListingOutput(items), nil
}

func (s *Service) listingLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	return s.cfg.FeatureLimit
}

func newListingOutput(items []fact.CachedFact) *ListingOutput {
	if items == nil {
		items = []fact.CachedFact{}
	}
	return &ListingOutput{Items: items, Count: len(items)}
}
