package reddit

import (
	"time"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
)

const (
	rateWindow    = 60 * time.Second
	rateWindowTTL = 2 * time.Minute
)

// RateLimitStatus is the operational snapshot exposed at /api/reddit/rate-limit.
type RateLimitStatus struct {
	Used           int `json:"requests_in_last_minute"`
	Max            int `json:"max_requests_per_minute"`
	Remaining      int `json:"remaining"`
	ResetInSeconds int `json:"reset_in_seconds"`
}

// Limiter tracks a sliding one-minute window of request timestamps per owner.
// The window lives in the shared cache with a short TTL so it survives across
// stateless invocations; all check-and-append sequences run atomically inside
// the store's Update.
type Limiter struct {
	store   *cache.Store
	ownerID string
	max     int
	enforce bool
}

// NewLimiter creates a limiter for one owner. An empty ownerID scopes the
// window globally.
func NewLimiter(store *cache.Store, ownerID string, maxPerMinute int) *Limiter {
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	return &Limiter{store: store, ownerID: ownerID, max: maxPerMinute, enforce: true}
}

// SetEnforce toggles enforcement. When disabled, Allow and TryAcquire always
// succeed; the bulk fetch job runs this way under its own explicit pacing.
func (l *Limiter) SetEnforce(enforce bool) { l.enforce = enforce }

func (l *Limiter) cacheKey() string {
	if l.ownerID == "" {
		return "reddit_api_rate_limit_global"
	}
	return "reddit_api_rate_limit_user_" + l.ownerID
}

// trimWindow returns the timestamps still inside the window. It always copies:
// callers outside the store lock (Allow, Status) share the cached backing
// array with writers inside it, so compacting in place would race.
func trimWindow(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rateWindow)
	trimmed := make([]time.Time, 0, len(stamps))
	for _, ts := range stamps {
		if !ts.Before(cutoff) {
			trimmed = append(trimmed, ts)
		}
	}
	return trimmed
}

func (l *Limiter) window() []time.Time {
	v, ok := l.store.Get(l.cacheKey())
	if !ok {
		return nil
	}
	stamps, _ := v.([]time.Time)
	return trimWindow(stamps, time.Now())
}

// Allow reports whether a request would fit the window right now. The trimmed
// window never counts timestamps older than sixty seconds.
func (l *Limiter) Allow() bool {
	if !l.enforce {
		return true
	}
	return len(l.window()) < l.max
}

// Record appends the current timestamp and persists the trimmed window.
func (l *Limiter) Record() {
	now := time.Now()
	l.store.Update(l.cacheKey(), rateWindowTTL, func(old any, ok bool) any {
		var stamps []time.Time
		if ok {
			stamps, _ = old.([]time.Time)
		}
		return append(trimWindow(stamps, now), now)
	})
}

// TryAcquire checks capacity and records the request in one atomic step,
// closing the check-then-write race a separate Allow+Record would leave open
// under concurrent callers.
func (l *Limiter) TryAcquire() bool {
	if !l.enforce {
		l.Record()
		return true
	}
	acquired := false
	now := time.Now()
	l.store.Update(l.cacheKey(), rateWindowTTL, func(old any, ok bool) any {
		var stamps []time.Time
		if ok {
			stamps, _ = old.([]time.Time)
		}
		stamps = trimWindow(stamps, now)
		if len(stamps) < l.max {
			acquired = true
			stamps = append(stamps, now)
		}
		return stamps
	})
	return acquired
}

// Status returns the current window usage. reset_in_seconds is the time until
// the oldest timestamp ages out, or 0 for an empty window.
func (l *Limiter) Status() RateLimitStatus {
	stamps := l.window()
	status := RateLimitStatus{
		Used:      len(stamps),
		Max:       l.max,
		Remaining: l.max - len(stamps),
	}
	if len(stamps) > 0 {
		oldest := stamps[0]
		for _, ts := range stamps[1:] {
			if ts.Before(oldest) {
				oldest = ts
			}
		}
		reset := int(rateWindow.Seconds()) - int(time.Since(oldest).Seconds())
		if reset < 0 {
			reset = 0
		}
		status.ResetInSeconds = reset
	}
	return status
}
