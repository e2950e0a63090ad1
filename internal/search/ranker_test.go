package search

import (
	"context"
	"math"
	"testing"

	"github.com/roamlabs/roam/internal/cache"
	"github.com/roamlabs/roam/internal/fact"
	"github.com/roamlabs/roam/internal/store"
)

func floatPtr(f float64) *float64 { return &f }

func newRanker(t *testing.T, facts ...*fact.CachedFact) *Ranker {
	t.Helper()
	c := cache.New(store.NewMemory(), 0)
	for _, f := range facts {
		if err := c.Put(context.Background(), f); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	return New(c)
}

func TestSearch_RankingDeterminism(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "a", Title: "Beach Sunset", VoteCountUp: 5},
		&fact.CachedFact{ID: "b", Title: "Malibu Beach", VoteCountUp: 20},
		&fact.CachedFact{ID: "c", Title: "Quiet Cove", Description: "near the beach", VoteCountUp: 0},
	)

	results, err := r.Search(context.Background(), "beach", Filters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	// A: 10 (contains) + 5 (prefix) + 0.5 (votes) = 15.5
	// B: 10 (contains) + 1.0 (vote cap)          = 11.0
	// C: 3 (description)                          = 3.0
	wantOrder := []string{"a", "b", "c"}
	wantScores := []float64{15.5, 11.0, 3.0}
	for i := range wantOrder {
		if results[i].Fact.ID != wantOrder[i] {
			t.Errorf("results[%d].ID = %q, want %q", i, results[i].Fact.ID, wantOrder[i])
		}
		if math.Abs(results[i].Score-wantScores[i]) > 1e-9 {
			t.Errorf("results[%d].Score = %v, want %v", i, results[i].Score, wantScores[i])
		}
	}
}

func TestSearch_BlankQuery(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "a", Title: "Beach Sunset"},
	)

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := r.Search(context.Background(), q, Filters{})
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", q, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(%q) returned %d results, want 0", q, len(results))
		}
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "a", Title: "BEACH Sunset"},
	)

	results, err := r.Search(context.Background(), "BeAcH", Filters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	// Prefix bonus applies case-insensitively too
	if results[0].Score != 15.0 {
		t.Errorf("Score = %v, want 15.0", results[0].Score)
	}
}

func TestSearch_LocationNameMatch(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "a", Title: "Sunset Spot", LocationName: "Venice Beach"},
	)

	results, err := r.Search(context.Background(), "beach", Filters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Score != 8.0 {
		t.Errorf("Score = %v, want 8.0 (location match only)", results[0].Score)
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "a", Title: "Beach Art", CategoryID: "art"},
		&fact.CachedFact{ID: "b", Title: "Beach Food", CategoryID: "food"},
		&fact.CachedFact{ID: "c", Title: "Beach History", CategoryID: "history"},
	)

	results, err := r.Search(context.Background(), "beach", Filters{
		Categories: []string{"art", "food"},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, res := range results {
		if res.Fact.CategoryID == "history" {
			t.Error("category filter leaked a non-member")
		}
	}
}

func TestSearch_GeoFilter(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "near", Title: "Beach Near", Latitude: floatPtr(0.5), Longitude: floatPtr(0)},
		&fact.CachedFact{ID: "far", Title: "Beach Far", Latitude: floatPtr(5), Longitude: floatPtr(0)},
		&fact.CachedFact{ID: "bare", Title: "Beach Unknown"},
	)

	results, err := r.Search(context.Background(), "beach", Filters{
		Geo: &fact.Geofilter{Latitude: 0, Longitude: 0, RadiusKm: 100},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	// Only the near fact: the far one is outside the radius, and a fact
	// without coordinates is excluded whenever a geofilter is present.
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Fact.ID != "near" {
		t.Errorf("results[0].ID = %q, want %q", results[0].Fact.ID, "near")
	}
}

func TestSearch_GeoFilterAbsentKeepsBareFacts(t *testing.T) {
	r := newRanker(t,
		&fact.CachedFact{ID: "bare", Title: "Beach Unknown"},
	)

	results, err := r.Search(context.Background(), "beach", Filters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("coordinate-less fact must remain text-searchable without a geofilter")
	}
}

func TestSearch_StableTieOrder(t *testing.T) {
	// Identical scores: filter-pass iteration order must be retained.
	facts := []*fact.CachedFact{
		{ID: "x", Title: "Beach One"},
		{ID: "y", Title: "Beach Two"},
		{ID: "z", Title: "Beach Three"},
	}
	c := cache.New(store.NewMemory(), 0)
	ctx := context.Background()
	for _, f := range facts {
		if err := c.Put(ctx, f); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	r := New(c)
	first, err := r.Search(ctx, "beach", Filters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	for range 5 {
		again, err := r.Search(ctx, "beach", Filters{})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for i := range first {
			if again[i].Fact.ID != first[i].Fact.ID {
				t.Fatalf("tie order changed between runs: %v vs %v", ids(again), ids(first))
			}
		}
	}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Fact.ID
	}
	return out
}
