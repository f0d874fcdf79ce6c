// Package analysis derives engagement, growth and opportunity metrics from
// raw subreddit data when the upstream payload does not supply them.
package analysis

import "strings"

// Metrics is the derived bundle attached to every search result. A zero value
// means "not yet computed": the estimator fills gaps but never overwrites a
// metric that already arrived non-empty.
type Metrics struct {
	PostsPerDay          float64  `json:"posts_per_day"`
	EngagementRate       float64  `json:"engagement_rate"`
	GrowthRate           float64  `json:"growth_rate"`
	OpportunityScore     float64  `json:"opportunity_score"`
	EngagementPerPost    float64  `json:"engagement_per_post"`
	ActivePostEngagement float64  `json:"active_post_engagement"`
	KeywordEngagement    float64  `json:"keyword_engagement"`
	ContentTypes         []string `json:"content_types"`
	Topics               []string `json:"topics"`
	ModerationLevel      string   `json:"moderation_level"`
}

// Subreddit is the canonical search-result shape: the raw upstream fields
// plus the metrics bundle, exposed both top-level (embedded) and nested under
// calculated_metrics for backward-compatible consumers.
type Subreddit struct {
	ID                string  `json:"id"`
	FullName          string  `json:"name"`
	DisplayName       string  `json:"display_name"`
	Title             string  `json:"title"`
	PublicDescription string  `json:"public_description"`
	Subscribers       int     `json:"subscribers"`
	ActiveUserCount   int     `json:"active_user_count"`
	CreatedUTC        float64 `json:"created_utc"`

	Metrics
	CalculatedMetrics *Metrics `json:"calculated_metrics,omitempty"`
}

// combinedText is the lowercase concatenation of display name, title and
// description used by the text-based estimators.
func (s *Subreddit) combinedText() string {
	return strings.ToLower(s.DisplayName + " " + s.Title + " " + s.PublicDescription)
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func num(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// FromListingChild builds a Subreddit from one child of a Reddit listing
// payload. Metric fields already present in the payload are carried over so
// the estimator can skip them; the legacy active_engagement key is resolved
// to active_post_engagement here, once, rather than at every call site.
func FromListingChild(child map[string]any) *Subreddit {
	data, ok := child["data"].(map[string]any)
	if !ok {
		return nil
	}
	s := &Subreddit{
		ID:                str(data, "id"),
		FullName:          str(data, "name"),
		DisplayName:       str(data, "display_name"),
		Title:             str(data, "title"),
		PublicDescription: str(data, "public_description"),
		Subscribers:       int(num(data, "subscribers")),
		ActiveUserCount:   int(num(data, "active_user_count")),
		CreatedUTC:        num(data, "created_utc"),
	}
	s.Metrics = metricsFromMap(data)
	if nested, ok := data["calculated_metrics"].(map[string]any); ok {
		fillMissing(&s.Metrics, metricsFromMap(nested))
	}
	return s
}

func metricsFromMap(m map[string]any) Metrics {
	out := Metrics{
		PostsPerDay:       num(m, "posts_per_day"),
		EngagementRate:    num(m, "engagement_rate"),
		GrowthRate:        num(m, "growth_rate"),
		OpportunityScore:  num(m, "opportunity_score"),
		EngagementPerPost: num(m, "engagement_per_post"),
		KeywordEngagement: num(m, "keyword_engagement"),
		ModerationLevel:   str(m, "moderation_level"),
	}
	out.ActivePostEngagement = num(m, "active_post_engagement")
	if out.ActivePostEngagement == 0 {
		// Legacy alias used by older payloads.
		out.ActivePostEngagement = num(m, "active_engagement")
	}
	if types, ok := m["content_types"].([]any); ok {
		for _, t := range types {
			if ts, ok := t.(string); ok {
				out.ContentTypes = append(out.ContentTypes, ts)
			}
		}
	}
	if topics, ok := m["topics"].([]any); ok {
		for _, t := range topics {
			if ts, ok := t.(string); ok {
				out.Topics = append(out.Topics, ts)
			}
		}
	}
	return out
}

// fillMissing copies src fields into dst where dst is still empty.
func fillMissing(dst *Metrics, src Metrics) {
	if dst.PostsPerDay == 0 {
		dst.PostsPerDay = src.PostsPerDay
	}
	if dst.EngagementRate == 0 {
		dst.EngagementRate = src.EngagementRate
	}
	if dst.GrowthRate == 0 {
		dst.GrowthRate = src.GrowthRate
	}
	if dst.OpportunityScore == 0 {
		dst.OpportunityScore = src.OpportunityScore
	}
	if dst.EngagementPerPost == 0 {
		dst.EngagementPerPost = src.EngagementPerPost
	}
	if dst.ActivePostEngagement == 0 {
		dst.ActivePostEngagement = src.ActivePostEngagement
	}
	if dst.KeywordEngagement == 0 {
		dst.KeywordEngagement = src.KeywordEngagement
	}
	if len(dst.ContentTypes) == 0 {
		dst.ContentTypes = src.ContentTypes
	}
	if len(dst.Topics) == 0 {
		dst.Topics = src.Topics
	}
	if dst.ModerationLevel == "" {
		dst.ModerationLevel = src.ModerationLevel
	}
}
