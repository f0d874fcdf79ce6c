package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// The estimators are heuristics over the fields Reddit exposes on a search
// result, not ground truth. They are pure: recomputing from the same inputs
// yields the same outputs.

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// PostsPerDay estimates posting cadence from active users scaled by community
// size on a log curve. The result is never below 1, which keeps the
// per-post divisions downstream away from zero.
func PostsPerDay(subscribers, activeUsers int) float64 {
	baseRate := math.Min(float64(activeUsers)*0.1, 100)
	factor := 1.0
	if subscribers > 0 {
		factor = math.Log10(float64(subscribers))
	}
	return round1(math.Max(baseRate*(factor/5), 1))
}

// GrowthRate estimates daily growth as a percentage. The formula reduces to
// the reciprocal of the subreddit's age in days: it is independent of the
// subscriber count despite its name. Kept as-is; consumers treat it as a
// heuristic, not a literal growth measurement.
func GrowthRate(subscribers int, createdUTC float64, now time.Time) float64 {
	ageInDays := now.Sub(time.Unix(int64(createdUTC), 0)).Hours() / 24
	if ageInDays < 1 || subscribers < 1 {
		return 0
	}
	estimatedDailyGrowth := float64(subscribers) / math.Max(ageInDays, 1)
	return round2(estimatedDailyGrowth / float64(subscribers) * 100)
}

// EngagementRate is the share of subscribers currently active, as a percent.
func EngagementRate(activeUsers, subscribers int) float64 {
	if subscribers == 0 {
		return 0
	}
	return round2(float64(activeUsers) / float64(subscribers) * 100)
}

// OpportunityScore blends size, engagement, growth and activity into a 0-100
// composite. Each component is normalized to 0-100 before weighting.
func OpportunityScore(subscribers int, engagementRate, growthRate, postsPerDay float64) float64 {
	subscriberScore := math.Min(100, 20*math.Log10(math.Max(float64(subscribers), 100)))
	engagementScore := math.Min(100, engagementRate*10)
	growthScore := math.Min(100, growthRate)
	activityScore := math.Min(100, postsPerDay*5)

	score := subscriberScore*0.2 +
		engagementScore*0.3 +
		growthScore*0.3 +
		activityScore*0.2
	return math.Round(score)
}

// EngagementPerPost assumes a fifth of active users engage with content and
// spreads them over the estimated daily posts.
func EngagementPerPost(activeUsers int, postsPerDay float64) float64 {
	if postsPerDay <= 0 {
		return 0
	}
	estimatedTotalEngagement := float64(activeUsers) * 0.2
	return round2(estimatedTotalEngagement / postsPerDay)
}

// ActivePostEngagement is EngagementPerPost restricted to the ~70% of posts
// that typically draw any engagement at all.
func ActivePostEngagement(activeUsers int, postsPerDay float64) float64 {
	if postsPerDay <= 0 {
		return 0
	}
	activePosts := postsPerDay * 0.7
	estimatedTotalEngagement := float64(activeUsers) * 0.2
	if activePosts <= 0 {
		return 0
	}
	return round2(estimatedTotalEngagement / activePosts)
}

// KeywordEngagement scores how well a subreddit's text matches the search
// query: one point per distinct query term (longer than two characters) found
// in the combined name/title/description, capped at ten, weighted by active
// users.
func KeywordEngagement(query string, s *Subreddit) float64 {
	text := s.combinedText()
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	seen := make(map[string]bool, len(terms))
	relevance := 0.0
	for _, term := range terms {
		if len(term) <= 2 || seen[term] {
			continue
		}
		seen[term] = true
		if strings.Contains(text, term) {
			relevance++
		}
	}
	normalized := math.Min(10, relevance)
	return round2(normalized * float64(s.ActiveUserCount) * 0.01)
}

var contentTypeKeywords = map[string][]string{
	"images": {"pic", "image", "photo", "picture"},
	"videos": {"video", "tube", "film", "youtube"},
	"text":   {"text", "story", "write", "discussion"},
	"links":  {"link", "news", "article"},
}

// contentTypeOrder keeps the output deterministic.
var contentTypeOrder = []string{"images", "videos", "text", "links"}

// ContentTypes tags the kinds of content a subreddit hosts, based on keyword
// hits in its name, title and description. Defaults to text when nothing
// matches.
func ContentTypes(s *Subreddit) []string {
	text := s.combinedText()
	var types []string
	for _, tag := range contentTypeOrder {
		for _, kw := range contentTypeKeywords[tag] {
			if strings.Contains(text, kw) {
				types = append(types, tag)
				break
			}
		}
	}
	if len(types) == 0 {
		types = []string{"text"}
	}
	return types
}

var stopWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "is", "are", "in", "on", "at",
		"to", "for", "with", "by", "about", "like", "through", "over",
		"before", "between", "after", "since", "without", "under", "within",
		"along", "following", "across", "behind", "beyond", "plus", "except",
		"up", "out", "around", "down", "off", "above", "near", "of", "this",
		"that", "these", "those", "it", "they", "we", "you", "i", "he", "she",
		"him", "her", "them", "their", "our", "your", "my", "his", "its",
		"us", "me",
	} {
		stopWords[w] = true
	}
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Topics extracts the five most frequent meaningful tokens from the combined
// subreddit text. Ties keep first-seen order.
func Topics(s *Subreddit) []string {
	text := nonWord.ReplaceAllString(s.combinedText(), " ")

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(text) {
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

var strictKeywords = []string{"rule", "strict", "remove", "ban", "moderate", "guideline", "policy"}

// ModerationLevel classifies how heavily moderated a community likely is.
// Very large subreddits and rule-heavy descriptions read as strict.
func ModerationLevel(subscribers int, description string) string {
	desc := strings.ToLower(description)
	strictCount := 0
	for _, kw := range strictKeywords {
		if strings.Contains(desc, kw) {
			strictCount++
		}
	}
	switch {
	case subscribers > 1_000_000 || strictCount >= 3:
		return "strict"
	case subscribers > 100_000 || strictCount >= 1:
		return "moderate"
	default:
		return "relaxed"
	}
}

// Enrich fills every metric that is still empty on s and mirrors the bundle
// under calculated_metrics. Existing non-empty values take precedence: the
// estimator fills gaps, it does not overwrite.
func Enrich(s *Subreddit, query string, now time.Time) {
	if s.PostsPerDay == 0 {
		s.PostsPerDay = PostsPerDay(s.Subscribers, s.ActiveUserCount)
	}
	if s.EngagementRate == 0 && s.Subscribers > 0 {
		s.EngagementRate = EngagementRate(s.ActiveUserCount, s.Subscribers)
	}
	if s.GrowthRate == 0 && s.CreatedUTC > 0 {
		s.GrowthRate = GrowthRate(s.Subscribers, s.CreatedUTC, now)
	}
	if s.OpportunityScore == 0 {
		s.OpportunityScore = OpportunityScore(s.Subscribers, s.EngagementRate, s.GrowthRate, s.PostsPerDay)
	}
	if s.EngagementPerPost == 0 {
		s.EngagementPerPost = EngagementPerPost(s.ActiveUserCount, s.PostsPerDay)
	}
	if s.ActivePostEngagement == 0 {
		s.ActivePostEngagement = ActivePostEngagement(s.ActiveUserCount, s.PostsPerDay)
	}
	if s.KeywordEngagement == 0 && query != "" {
		s.KeywordEngagement = KeywordEngagement(query, s)
	}
	if len(s.ContentTypes) == 0 {
		s.ContentTypes = ContentTypes(s)
	}
	if len(s.Topics) == 0 {
		s.Topics = Topics(s)
	}
	if s.ModerationLevel == "" {
		s.ModerationLevel = ModerationLevel(s.Subscribers, s.PublicDescription)
	}
	s.CalculatedMetrics = &s.Metrics
}
