// Package cache provides a process-local TTL cache shared by the token
// manager, the rate limiter and the search layer. All mutation goes through a
// single lock so read-modify-write sequences (the rate window in particular)
// are atomic.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a concurrency-safe map with per-entry TTL.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Get returns the value for key, or false if absent or expired.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Update applies fn to the current value (ok reports whether a live entry
// existed) and stores the result under key with ttl. The whole sequence runs
// under the store lock, so concurrent updaters cannot interleave between the
// read and the write.
func (s *Store) Update(key string, ttl time.Duration, fn func(old any, ok bool) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	var old any
	if ok {
		old = e.value
	}
	next := fn(old, ok)
	s.entries[key] = entry{value: next, expiresAt: time.Now().Add(ttl)}
	return next
}

// Purge removes all expired entries. Called periodically by the owner; the
// store also expires lazily on Get/Update.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
