// Package jobs runs the background bulk post fetches that fill audience
// subreddits with recent post data.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/revdoll6/reddit-niche-finder/internal/db"
	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
	"github.com/revdoll6/reddit-niche-finder/internal/telemetry"
)

const (
	pageSize       = 100
	maxPosts       = 500
	attemptTimeout = 300 * time.Second
	queueDepth     = 256
)

// pageInterval paces listing pages. The job bypasses the shared limiter so a
// bulk fetch cannot starve interactive traffic, and throttles itself instead.
var pageInterval = 2 * time.Second

// backoffSchedule is the wait before each retry after a failed attempt.
var backoffSchedule = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

// Fetcher is the slice of the Reddit client the job needs.
type Fetcher interface {
	SubredditPosts(ctx context.Context, name, sort string, limit int, after string) (map[string]any, error)
}

// ClientFunc resolves a paced, non-enforcing client for an owner.
type ClientFunc func(ownerID string) (Fetcher, error)

// Request identifies one subreddit fetch within an audience.
type Request struct {
	AudienceID    string
	SubredditName string
	OwnerID       string
}

func (r Request) key() string { return r.AudienceID + "/" + r.SubredditName }

// Runner owns the worker pool. At most one fetch per (audience, subreddit)
// is in flight at a time; duplicate enqueues while one is pending are dropped.
type Runner struct {
	database *gorm.DB
	clients  ClientFunc
	workers  int

	queue    chan Request
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewRunner(database *gorm.DB, clients ClientFunc, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		database: database,
		clients:  clients,
		workers:  workers,
		queue:    make(chan Request, queueDepth),
		inFlight: make(map[string]bool),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		go r.worker(ctx)
	}
}

func (r *Runner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.queue:
			r.run(ctx, req)
			r.mu.Lock()
			delete(r.inFlight, req.key())
			r.mu.Unlock()
		}
	}
}

// Enqueue schedules a fetch. Returns false when the same fetch is already
// queued or running, or the queue is full.
func (r *Runner) Enqueue(req Request) bool {
	r.mu.Lock()
	if r.inFlight[req.key()] {
		r.mu.Unlock()
		return false
	}
	r.inFlight[req.key()] = true
	r.mu.Unlock()

	select {
	case r.queue <- req:
		return true
	default:
		r.mu.Lock()
		delete(r.inFlight, req.key())
		r.mu.Unlock()
		log.Printf("fetch queue full, dropping r/%s for audience %s", req.SubredditName, req.AudienceID)
		return false
	}
}

// Resume re-enqueues fetches that were pending or interrupted when the
// process last stopped.
func (r *Runner) Resume() {
	records, err := db.PendingFetches(r.database)
	if err != nil {
		log.Printf("loading pending fetches: %v", err)
		return
	}
	for _, rec := range records {
		audience := models.Audience{}
		if err := r.database.Select("owner_id").First(&audience, "id = ?", rec.AudienceID).Error; err != nil {
			continue
		}
		r.Enqueue(Request{
			AudienceID:    rec.AudienceID,
			SubredditName: rec.SubredditName,
			OwnerID:       audience.OwnerID,
		})
	}
	if len(records) > 0 {
		log.Printf("resumed %d pending post fetches", len(records))
	}
}

// run drives one request through its attempts. Each attempt gets a fresh
// timeout; a failed attempt marks the record failed immediately, and the next
// attempt flips it back to in_progress. After the last attempt it stays failed.
func (r *Runner) run(ctx context.Context, req Request) {
	start := time.Now()
	defer func() { telemetry.JobDuration.Observe(time.Since(start).Seconds()) }()

	var lastErr error
	for attempt := 0; attempt <= len(backoffSchedule); attempt++ {
		if attempt > 0 {
			wait := backoffSchedule[attempt-1]
			log.Printf("retrying r/%s for audience %s in %s (attempt %d)", req.SubredditName, req.AudienceID, wait, attempt+1)
			telemetry.JobRuns.WithLabelValues("retry").Inc()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		lastErr = r.fetchOnce(attemptCtx, req)
		cancel()
		if lastErr == nil {
			telemetry.JobRuns.WithLabelValues("success").Inc()
			return
		}
		log.Printf("fetch of r/%s for audience %s failed: %v", req.SubredditName, req.AudienceID, lastErr)
		if err := db.SetFetchStatus(r.database, req.AudienceID, req.SubredditName, models.FetchStatusFailed); err != nil {
			log.Printf("marking r/%s failed for audience %s: %v", req.SubredditName, req.AudienceID, err)
		}
	}

	telemetry.JobRuns.WithLabelValues("failure").Inc()
}

// fetchOnce walks /r/{name}/new pages of 100 until the listing is exhausted
// or the cap is hit, then stores the aggregate payload and marks the record
// completed.
func (r *Runner) fetchOnce(ctx context.Context, req Request) error {
	if err := db.SetFetchStatus(r.database, req.AudienceID, req.SubredditName, models.FetchStatusInProgress); err != nil {
		return fmt.Errorf("marking fetch in progress: %w", err)
	}

	client, err := r.clients(req.OwnerID)
	if err != nil {
		return err
	}

	pacer := rate.NewLimiter(rate.Every(pageInterval), 1)
	var posts []map[string]any
	after := ""
	for {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		listing, err := client.SubredditPosts(ctx, req.SubredditName, "new", pageSize, after)
		if err != nil {
			return err
		}

		data, _ := listing["data"].(map[string]any)
		children, _ := data["children"].([]any)
		for _, c := range children {
			child, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if post, ok := child["data"].(map[string]any); ok {
				posts = append(posts, post)
			}
		}

		if len(posts) >= maxPosts {
			log.Printf("r/%s hit the %d post cap, truncating", req.SubredditName, maxPosts)
			posts = posts[:maxPosts]
			break
		}
		if len(children) < pageSize {
			break
		}
		next, _ := data["after"].(string)
		if next == "" {
			if len(children) > 0 {
				if last, ok := children[len(children)-1].(map[string]any); ok {
					if pd, ok := last["data"].(map[string]any); ok {
						next, _ = pd["name"].(string)
					}
				}
			}
			if next == "" {
				break
			}
		}
		after = next
	}

	var totalUps, totalComments float64
	for _, post := range posts {
		if v, ok := post["ups"].(float64); ok {
			totalUps += v
		}
		if v, ok := post["num_comments"].(float64); ok {
			totalComments += v
		}
	}
	log.Printf("fetched %d posts from r/%s (%.0f upvotes, %.0f comments)",
		len(posts), req.SubredditName, totalUps, totalComments)

	payload := map[string]any{
		"count":      len(posts),
		"subreddit":  req.SubredditName,
		"fetched_at": time.Now().UTC().Format(time.RFC3339),
		"posts":      posts,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding posts payload: %w", err)
	}

	newestPostID := ""
	if len(posts) > 0 {
		newestPostID, _ = posts[0]["name"].(string)
	}
	return db.CompleteFetch(r.database, req.AudienceID, req.SubredditName, string(encoded), newestPostID)
}
