// Package search layers session and result caches over live subreddit
// lookups and normalizes raw listings into the canonical response shape.
package search

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/revdoll6/reddit-niche-finder/internal/analysis"
	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
	"github.com/revdoll6/reddit-niche-finder/internal/telemetry"
)

const (
	sessionTTL = time.Hour
	resultTTL  = 15 * time.Minute
)

// Searcher is the slice of the Reddit client the orchestrator needs.
type Searcher interface {
	SearchSubreddits(ctx context.Context, query string, limit int) (map[string]any, error)
}

// Result is the JSON contract handed to the web layer.
type Result struct {
	Query        string                `json:"query"`
	Results      []*analysis.Subreddit `json:"results"`
	TotalResults int                   `json:"total_results"`
	Timestamp    int64                 `json:"timestamp"`
}

// Orchestrator resolves a search through session cache, then keyed result
// cache, then the live API.
type Orchestrator struct {
	sessions *cache.Store
	results  *cache.Store
}

func New(sessions, results *cache.Store) *Orchestrator {
	return &Orchestrator{sessions: sessions, results: results}
}

func hashKey(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sessionKey(owner, query string) string {
	return "search_" + owner + "_" + hashKey(query)
}

func resultKey(query string, limit int) string {
	return "subreddit_search_" + hashKey(fmt.Sprintf("%s%d", query, limit))
}

// Search returns the result set for query plus the source it came from
// ("session", "cache" or "api").
func (o *Orchestrator) Search(ctx context.Context, client Searcher, owner, query string, limit int) (*Result, string, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, "", &reddit.ValidationError{Message: "Search query must be at least 2 characters long"}
	}
	if limit <= 0 {
		limit = 25
	}

	if v, ok := o.sessions.Get(sessionKey(owner, query)); ok {
		if res, ok := v.(*Result); ok {
			telemetry.SearchRequests.WithLabelValues("session").Inc()
			return res, "session", nil
		}
	}

	if v, ok := o.results.Get(resultKey(query, limit)); ok {
		if subs, ok := v.([]*analysis.Subreddit); ok {
			res := &Result{
				Query:        query,
				Results:      subs,
				TotalResults: len(subs),
				Timestamp:    time.Now().Unix(),
			}
			o.sessions.Set(sessionKey(owner, query), res, sessionTTL)
			telemetry.SearchRequests.WithLabelValues("cache").Inc()
			return res, "cache", nil
		}
	}

	log.Printf("starting live subreddit search for %q (limit %d)", query, limit)
	raw, err := client.SearchSubreddits(ctx, query, limit)
	if err != nil {
		return nil, "", err
	}

	subs := processListing(raw, query)
	o.results.Set(resultKey(query, limit), subs, resultTTL)

	res := &Result{
		Query:        query,
		Results:      subs,
		TotalResults: len(subs),
		Timestamp:    time.Now().Unix(),
	}
	o.sessions.Set(sessionKey(owner, query), res, sessionTTL)
	telemetry.SearchRequests.WithLabelValues("api").Inc()
	return res, "api", nil
}

// processListing parses listing children, drops entries without a display
// name, deduplicates by display name keeping the first occurrence, and runs
// the estimator over each survivor.
func processListing(raw map[string]any, query string) []*analysis.Subreddit {
	now := time.Now()
	subs := []*analysis.Subreddit{}
	seen := make(map[string]bool)

	data, _ := raw["data"].(map[string]any)
	children, _ := data["children"].([]any)
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		sub := analysis.FromListingChild(child)
		if sub == nil || sub.DisplayName == "" || seen[sub.DisplayName] {
			continue
		}
		seen[sub.DisplayName] = true
		analysis.Enrich(sub, query, now)
		subs = append(subs, sub)
	}
	return subs
}

// StoreSession places externally supplied results into the session cache,
// mirroring the SPA's explicit store endpoint.
func (o *Orchestrator) StoreSession(owner string, res *Result) {
	o.sessions.Set(sessionKey(owner, res.Query), res, sessionTTL)
}

// FromSession returns fresh session results for query, if any.
func (o *Orchestrator) FromSession(owner, query string) (*Result, bool) {
	v, ok := o.sessions.Get(sessionKey(owner, query))
	if !ok {
		return nil, false
	}
	res, ok := v.(*Result)
	return res, ok
}
