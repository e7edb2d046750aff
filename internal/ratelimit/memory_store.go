package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback used when no Redis backend is
// configured. It keeps a sliding list of request timestamps per key, pruned
// to the window on each check. State is local to one service instance and
// resets on restart; that consistency gap across multiple instances is a
// known limitation of the fallback, not something to paper over here.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Take implements CounterStore. It never fails.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[key][:0]
	for _, ts := range s.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		s.entries[key] = kept
		return false, nil
	}

	s.entries[key] = append(kept, now)
	return true, nil
}
