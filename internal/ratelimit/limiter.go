// Package ratelimit implements per-client, per-category request counting
// over fixed windows. Correctness across service instances is delegated to
// a shared Redis backend; a mutex-guarded in-memory store is the
// single-instance fallback. An unavailable backend never blocks a request:
// counting errors are logged and the request is admitted (fail-open).
package ratelimit

import (
	"context"
	"log"
	"time"
)

// CounterStore tracks request counts per key over a rolling window and
// decides admit/deny. Take counts the current request unless the key is
// already at its limit; a denied request must not push the counter further.
type CounterStore interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, err error)
}

// Limiter decides whether a request from a given client identifier is
// admitted for its endpoint category. One Limiter is constructed at service
// start and shared by every request handler.
type Limiter struct {
	store CounterStore
}

// NewLimiter creates a Limiter on top of the given counter store.
func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// Allow reports whether the request is within its category budget. A
// counter-store failure is recovered locally as fail-open: availability of
// the product outweighs strict enforcement.
func (l *Limiter) Allow(ctx context.Context, identifier string, cat Category) bool {
	key := "rate_limit:" + cat.Name + ":" + identifier
	allowed, err := l.store.Take(ctx, key, cat.Limit, cat.Window)
	if err != nil {
		log.Printf("rate limiting error for key %s: %v (failing open)", key, err)
		return true
	}
	return allowed
}
