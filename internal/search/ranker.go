// Package search ranks cached facts against a text query entirely
// offline. Scoring is additive and deterministic so results are stable
// across runs and across store implementations.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/roamlabs/roam/internal/cache"
	"github.com/roamlabs/roam/internal/fact"
)

// Scoring weights. Popularity is capped so it can break ties between
// equally relevant facts but never dominate text relevance.
const (
	scoreTitleContains    = 10.0
	scoreTitlePrefix      = 5.0
	scoreLocationContains = 8.0
	scoreDescContains     = 3.0
	popularityPerVote     = 0.1
	popularityVoteCap     = 10
)

// Filters narrow a search before ranking. All supplied filters must pass.
type Filters struct {
	// Categories restricts results to the given category ids when non-empty.
	Categories []string

	// Geo restricts results to a geofence when non-nil.
	Geo *fact.Geofilter
}

// Result pairs a matched fact with its relevance score.
type Result struct {
	Fact  fact.CachedFact `json:"fact"`
	Score float64         `json:"score"`
}

// Ranker filters and scores the geospatial cache.
type Ranker struct {
	cache *cache.Cache
}

// New creates a Ranker over the given cache.
func New(c *cache.Cache) *Ranker {
	return &Ranker{cache: c}
}

// Search returns matching facts ordered descending by score. A blank
// query is a no-search, not a match-all: it yields an empty result set.
// Ties keep the filter-pass iteration order (stable sort).
func (r *Ranker) Search(ctx context.Context, query string, filters Filters) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}
	q := strings.ToLower(query)

	facts, err := r.cache.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]bool, len(filters.Categories))
	for _, c := range filters.Categories {
		categories[c] = true
	}

	results := make([]Result, 0, len(facts))
	for _, f := range facts {
		if !matches(&f, q, categories, filters.Geo) {
			continue
		}
		results = append(results, Result{Fact: f, Score: score(&f, q)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// matches applies the AND filter set: text, category, geofence.
func matches(f *fact.CachedFact, q string, categories map[string]bool, geo *fact.Geofilter) bool {
	title := strings.ToLower(f.Title)
	desc := strings.ToLower(f.Description)
	loc := strings.ToLower(f.LocationName)

	if !strings.Contains(title, q) && !strings.Contains(desc, q) && !strings.Contains(loc, q) {
		return false
	}
	if len(categories) > 0 && !categories[f.CategoryID] {
		return false
	}
	if geo != nil && !geo.Contains(f) {
		return false
	}
	return true
}

// score computes the additive relevance score for a fact that passed
// filtering.
func score(f *fact.CachedFact, q string) float64 {
	title := strings.ToLower(f.Title)
	desc := strings.ToLower(f.Description)
	loc := strings.ToLower(f.LocationName)

	var s float64
	if strings.Contains(title, q) {
		s += scoreTitleContains
		if strings.HasPrefix(title, q) {
			s += scoreTitlePrefix
		}
	}
	if strings.Contains(loc, q) {
		s += scoreLocationContains
	}
	if strings.Contains(desc, q) {
		s += scoreDescContains
	}

	s += popularityPerVote * float64(min(f.VoteCountUp, popularityVoteCap))
	return s
}
