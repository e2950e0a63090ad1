package ops

import (
	"context"

	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
	"github.com/roamlabs/roam/internal/search"
)

// SearchOfflineInput contains the query and optional filters.
type SearchOfflineInput struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"`

	// Latitude, Longitude, and RadiusKm together form the geofence;
	// the geofilter applies only when all three are present.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`
}

// SearchOfflineOutput contains ranked results.
type SearchOfflineOutput struct {
	Items []search.Result `json:"items"`
	Count int             `json:"count"`
}

// SearchOffline filters and ranks the local cache without any network
// access. A blank query yields an empty result set.
func (s *Service) SearchOffline(ctx context.Context, input SearchOfflineInput) (*SearchOfflineOutput, error) {
	filters := search.Filters{Categories: input.Categories}

	geoFields := 0
	for _, v := range []*float64{input.Latitude, input.Longitude, input.RadiusKm} {
		if v != nil {
			geoFields++
		}
	}
	switch geoFields {
	case 0:
		// no geofence
	case 3:
		if *input.RadiusKm < 0 {
			return nil, errors.NewInvalidRequest("radius_km must not be negative")
		}
		filters.Geo = &fact.Geofilter{
			Latitude:  *input.Latitude,
			Longitude: *input.Longitude,
			RadiusKm:  *input.RadiusKm,
		}
	default:
		return nil, errors.NewInvalidRequest("latitude, longitude, and radius_km must be provided together")
	}

	items, err := s.ranker.Search(ctx, input.Query, filters)
	if err != nil {
		return nil, err
	}
	return &SearchOfflineOutput{Items: items, Count: len(items)}, nil
}
