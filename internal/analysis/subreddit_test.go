package analysis

import (
	"encoding/json"
	"testing"
)

func listingChild(data map[string]any) map[string]any {
	return map[string]any{"kind": "t5", "data": data}
}

func TestFromListingChildParsesCoreFields(t *testing.T) {
	s := FromListingChild(listingChild(map[string]any{
		"id":                 "2rc7j",
		"name":               "t5_2rc7j",
		"display_name":       "golang",
		"title":              "The Go Programming Language",
		"public_description": "Gophers welcome",
		"subscribers":        float64(250000),
		"active_user_count":  float64(900),
		"created_utc":        float64(1258675464),
	}))
	if s == nil {
		t.Fatal("expected a subreddit")
	}
	if s.DisplayName != "golang" || s.FullName != "t5_2rc7j" {
		t.Fatalf("unexpected identity fields: %+v", s)
	}
	if s.Subscribers != 250000 || s.ActiveUserCount != 900 {
		t.Fatalf("unexpected counts: %+v", s)
	}
}

func TestFromListingChildResolvesLegacyAlias(t *testing.T) {
	s := FromListingChild(listingChild(map[string]any{
		"display_name":      "golang",
		"active_engagement": float64(12.5),
	}))
	if s.ActivePostEngagement != 12.5 {
		t.Fatalf("expected legacy alias resolution, got %v", s.ActivePostEngagement)
	}

	// The canonical key wins when both are present.
	s = FromListingChild(listingChild(map[string]any{
		"display_name":           "golang",
		"active_post_engagement": float64(3),
		"active_engagement":      float64(12.5),
	}))
	if s.ActivePostEngagement != 3 {
		t.Fatalf("canonical key should win, got %v", s.ActivePostEngagement)
	}
}

func TestFromListingChildMergesNestedMetrics(t *testing.T) {
	s := FromListingChild(listingChild(map[string]any{
		"display_name":  "golang",
		"posts_per_day": float64(40),
		"calculated_metrics": map[string]any{
			"posts_per_day":   float64(99), // loses to the top-level value
			"engagement_rate": float64(4.2),
			"topics":          []any{"go", "programming"},
		},
	}))
	if s.PostsPerDay != 40 {
		t.Fatalf("top-level metric should win, got %v", s.PostsPerDay)
	}
	if s.EngagementRate != 4.2 {
		t.Fatalf("nested gap-fill missing, got %v", s.EngagementRate)
	}
	if len(s.Topics) != 2 || s.Topics[0] != "go" {
		t.Fatalf("nested topics missing, got %v", s.Topics)
	}
}

func TestFromListingChildRejectsMalformed(t *testing.T) {
	if s := FromListingChild(map[string]any{"kind": "t5"}); s != nil {
		t.Fatalf("expected nil for child without data, got %+v", s)
	}
}

func TestSubredditJSONExposesMetricsTwice(t *testing.T) {
	s := &Subreddit{DisplayName: "golang"}
	s.PostsPerDay = 12
	s.ModerationLevel = "relaxed"
	s.CalculatedMetrics = &s.Metrics

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out["posts_per_day"] != float64(12) {
		t.Fatalf("expected top-level posts_per_day, got %v", out["posts_per_day"])
	}
	nested, ok := out["calculated_metrics"].(map[string]any)
	if !ok {
		t.Fatal("expected calculated_metrics object")
	}
	if nested["posts_per_day"] != float64(12) || nested["moderation_level"] != "relaxed" {
		t.Fatalf("nested bundle mismatch: %v", nested)
	}
}
