package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/linkak/linkak/internal/errors"
)

// RedisStore is the preferred counter backend: a fixed-window counter per
// key, expired by Redis TTL rather than explicit logic. Once the window
// elapses the key is gone and the next request starts a fresh window.
// Bursts at window boundaries are an accepted approximation of this scheme.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a counter store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Take implements CounterStore. The first request in a window creates the
// counter at 1 with the window as TTL; requests under the limit increment
// it; requests at or over the limit are denied without incrementing.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	current, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		if err := s.client.Set(ctx, key, 1, window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}

	if current >= limit {
		return false, nil
	}

	if err := s.client.Incr(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}
	return true, nil
}
