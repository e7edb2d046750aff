package security

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// eventRetention bounds how long recorded security events are kept in the
// backing store. Events are audit material only; the gateway never reads
// them back.
const eventRetention = 24 * time.Hour

// Event is one security-relevant occurrence emitted by the gate.
type Event struct {
	Type      string         `json:"event_type"`
	Client    string         `json:"client"`
	Endpoint  string         `json:"endpoint"`
	Method    string         `json:"method"`
	URL       string         `json:"url"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// EventSink records security events. Implementations must treat recording
// as best-effort: callers swallow returned errors after logging them, so a
// failing sink must never be able to break the request path.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// RedisEventSink stores events as JSON values with a 24h TTL, one key per
// event, for external audit tooling to scan.
type RedisEventSink struct {
	client *redis.Client
}

// NewRedisEventSink creates a sink backed by the given Redis client.
func NewRedisEventSink(client *redis.Client) *RedisEventSink {
	return &RedisEventSink{client: client}
}

// Record serializes the event and stores it under a timestamped key.
func (s *RedisEventSink) Record(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize security event: %w", err)
	}
	key := fmt.Sprintf("security_events:%d", ev.Timestamp.UnixNano())
	if err := s.client.Set(ctx, key, payload, eventRetention).Err(); err != nil {
		return fmt.Errorf("failed to store security event: %w", err)
	}
	return nil
}

// LogEventSink writes events to the process log. It is the fallback when no
// Redis backend is configured.
type LogEventSink struct{}

// Record logs the event and never fails.
func (LogEventSink) Record(_ context.Context, ev Event) error {
	log.Printf("[SECURITY] %s client=%s endpoint=%s method=%s details=%v",
		ev.Type, ev.Client, ev.Endpoint, ev.Method, ev.Details)
	return nil
}
