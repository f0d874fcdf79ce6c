package search

import (
	"context"
	"errors"
	"testing"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
)

// stubSearcher returns a fixed listing and counts live calls.
type stubSearcher struct {
	calls   int
	listing map[string]any
	err     error
}

func (s *stubSearcher) SearchSubreddits(ctx context.Context, query string, limit int) (map[string]any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.listing, nil
}

func listingOf(names ...string) map[string]any {
	children := make([]any, 0, len(names))
	for _, name := range names {
		children = append(children, map[string]any{
			"kind": "t5",
			"data": map[string]any{
				"id":                name + "-id",
				"name":              "t5_" + name,
				"display_name":      name,
				"title":             name + " community",
				"subscribers":       float64(50_000),
				"active_user_count": float64(400),
				"created_utc":       float64(1258675464),
			},
		})
	}
	return map[string]any{
		"kind": "Listing",
		"data": map[string]any{"children": children},
	}
}

func newTestOrchestrator() *Orchestrator {
	return New(cache.New(), cache.New())
}

func TestSearchRejectsShortQueries(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang")}

	for _, query := range []string{"", "a", "  a  "} {
		_, _, err := o.Search(context.Background(), stub, "owner-1", query, 25)
		var validationErr *reddit.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("query %q: expected ValidationError, got %v", query, err)
		}
	}
	if stub.calls != 0 {
		t.Fatalf("invalid queries must not reach the API, saw %d calls", stub.calls)
	}
}

func TestSearchHitsAPIThenSession(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang", "rust")}

	res, source, err := o.Search(context.Background(), stub, "owner-1", "programming", 25)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if source != "api" || stub.calls != 1 {
		t.Fatalf("expected live search, got source=%q calls=%d", source, stub.calls)
	}
	if res.TotalResults != 2 {
		t.Fatalf("expected 2 results, got %d", res.TotalResults)
	}

	_, source, err = o.Search(context.Background(), stub, "owner-1", "programming", 25)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if source != "session" || stub.calls != 1 {
		t.Fatalf("expected session hit, got source=%q calls=%d", source, stub.calls)
	}
}

func TestSearchSharesResultCacheAcrossOwners(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang")}

	if _, _, err := o.Search(context.Background(), stub, "owner-1", "programming", 25); err != nil {
		t.Fatalf("first search: %v", err)
	}

	// A different owner misses the session cache but reuses the keyed
	// result cache, skipping the API.
	_, source, err := o.Search(context.Background(), stub, "owner-2", "programming", 25)
	if err != nil {
		t.Fatalf("second owner search: %v", err)
	}
	if source != "cache" || stub.calls != 1 {
		t.Fatalf("expected result-cache hit, got source=%q calls=%d", source, stub.calls)
	}
}

func TestSearchDifferentLimitMissesResultCache(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang")}

	if _, _, err := o.Search(context.Background(), stub, "owner-1", "programming", 25); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, _, err := o.Search(context.Background(), stub, "owner-2", "programming", 50); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("different limit should bypass the result cache, calls=%d", stub.calls)
	}
}

func TestSearchDeduplicatesByDisplayName(t *testing.T) {
	listing := listingOf("golang", "rust")
	children := listing["data"].(map[string]any)["children"].([]any)
	dup := map[string]any{
		"kind": "t5",
		"data": map[string]any{
			"display_name": "golang",
			"title":        "impostor",
			"subscribers":  float64(1),
		},
	}
	listing["data"].(map[string]any)["children"] = append(children, dup)

	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listing}

	res, _, err := o.Search(context.Background(), stub, "owner-1", "programming", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.TotalResults != 2 {
		t.Fatalf("expected duplicate to be dropped, got %d results", res.TotalResults)
	}
	for _, sub := range res.Results {
		if sub.DisplayName == "golang" && sub.Title == "impostor" {
			t.Fatal("first occurrence should win, impostor survived")
		}
	}
}

func TestSearchEnrichesResults(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang")}

	res, _, err := o.Search(context.Background(), stub, "owner-1", "golang", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	sub := res.Results[0]
	if sub.PostsPerDay == 0 || sub.OpportunityScore == 0 || sub.ModerationLevel == "" {
		t.Fatalf("expected metrics to be filled: %+v", sub.Metrics)
	}
	if sub.CalculatedMetrics == nil || sub.CalculatedMetrics.PostsPerDay != sub.PostsPerDay {
		t.Fatal("expected calculated_metrics to mirror the metrics")
	}
}

func TestSearchEndToEndFivesSubreddits(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{listing: listingOf("golang", "rust", "python", "elixir", "zig")}

	res, source, err := o.Search(context.Background(), stub, "owner-1", "programming languages", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if source != "api" || res.TotalResults != 5 {
		t.Fatalf("expected 5 live results, got %d from %q", res.TotalResults, source)
	}
	for _, sub := range res.Results {
		if sub.CalculatedMetrics == nil {
			t.Fatalf("r/%s missing calculated_metrics", sub.DisplayName)
		}
		m := sub.CalculatedMetrics
		if m.PostsPerDay == 0 || m.EngagementRate == 0 || m.OpportunityScore == 0 ||
			m.ModerationLevel == "" || len(m.ContentTypes) == 0 {
			t.Fatalf("r/%s has unfilled metrics: %+v", sub.DisplayName, m)
		}
	}
	if res.Timestamp == 0 {
		t.Fatal("expected a timestamp")
	}
}

func TestSearchPropagatesClientErrors(t *testing.T) {
	o := newTestOrchestrator()
	stub := &stubSearcher{err: &reddit.RateLimitError{ResetIn: 30}}

	_, _, err := o.Search(context.Background(), stub, "owner-1", "programming", 25)
	var rateErr *reddit.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	o := newTestOrchestrator()

	if _, ok := o.FromSession("owner-1", "golang"); ok {
		t.Fatal("expected empty session")
	}

	o.StoreSession("owner-1", &Result{Query: "golang", TotalResults: 1})
	res, ok := o.FromSession("owner-1", "golang")
	if !ok || res.TotalResults != 1 {
		t.Fatalf("expected stored session result, got %v %v", res, ok)
	}

	if _, ok := o.FromSession("owner-2", "golang"); ok {
		t.Fatal("sessions must be scoped per owner")
	}
}
