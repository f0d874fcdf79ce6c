package cache

import (
	"sync"
	"testing"
	"time"
)

func TestGetReturnsStoredValue(t *testing.T) {
	s := New()
	s.Set("key", "value", time.Minute)

	v, ok := s.Get("key")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if v.(string) != "value" {
		t.Fatalf("expected value, got %v", v)
	}
}

func TestGetExpiresEntries(t *testing.T) {
	s := New()
	s.Set("key", "value", -time.Second)

	if _, ok := s.Get("key"); ok {
		t.Fatal("expected expired entry to be gone")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	s.Set("key", "value", time.Minute)
	s.Delete("key")

	if _, ok := s.Get("key"); ok {
		t.Fatal("expected deleted entry to be gone")
	}
}

func TestUpdateSeesExpiredEntryAsAbsent(t *testing.T) {
	s := New()
	s.Set("key", 10, -time.Second)

	s.Update("key", time.Minute, func(old any, ok bool) any {
		if ok {
			t.Fatal("expected expired entry to report absent")
		}
		return 1
	})

	v, _ := s.Get("key")
	if v.(int) != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
}

func TestUpdateIsAtomicUnderConcurrency(t *testing.T) {
	s := New()
	const workers = 50
	const increments = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				s.Update("counter", time.Minute, func(old any, ok bool) any {
					if !ok {
						return 1
					}
					return old.(int) + 1
				})
			}
		}()
	}
	wg.Wait()

	v, _ := s.Get("counter")
	if v.(int) != workers*increments {
		t.Fatalf("expected %d, got %v", workers*increments, v)
	}
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	s := New()
	s.Set("live", 1, time.Minute)
	s.Set("dead", 2, -time.Second)

	s.Purge()

	if _, ok := s.Get("live"); !ok {
		t.Fatal("expected live entry to survive purge")
	}
	s.mu.Lock()
	_, ok := s.entries["dead"]
	s.mu.Unlock()
	if ok {
		t.Fatal("expected dead entry to be purged")
	}
}
