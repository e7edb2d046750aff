// Package monitor periodically checks whether the destinations behind
// active short links are still reachable, and logs state transitions.
package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/linkak/linkak/internal/repository"
)

// UrlMonitor tracks the reachability of link targets over time. It keeps a
// state map so that only transitions (up -> down, down -> up) produce
// notifications.
type UrlMonitor struct {
	linkRepo    repository.LinkRepository
	interval    time.Duration
	knownStates map[uint]bool
	mu          sync.Mutex
	httpClient  *http.Client
}

// NewUrlMonitor creates a monitor checking targets every interval.
func NewUrlMonitor(linkRepo repository.LinkRepository, interval time.Duration) *UrlMonitor {
	return &UrlMonitor{
		linkRepo:    linkRepo,
		interval:    interval,
		knownStates: make(map[uint]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start runs the monitoring loop until the process stops. Call it in its
// own goroutine.
func (m *UrlMonitor) Start() {
	log.Printf("[MONITOR] Starting target-URL monitor with interval of %v...", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkUrls()

	for range ticker.C {
		m.checkUrls()
	}
}

// checkUrls probes every active, unexpired link's target once.
func (m *UrlMonitor) checkUrls() {
	links, err := m.linkRepo.GetActiveLinks()
	if err != nil {
		log.Printf("[MONITOR] ERROR retrieving links for monitoring: %v", err)
		return
	}

	now := time.Now()
	for _, link := range links {
		if link.Expired(now) {
			continue
		}

		currentState := m.isUrlAccessible(link.OriginalURL)

		m.mu.Lock()
		previousState, exists := m.knownStates[link.ID]
		m.knownStates[link.ID] = currentState
		m.mu.Unlock()

		if !exists {
			log.Printf("[MONITOR] Initial state for link %s (%s): %s",
				link.ShortCode, link.OriginalURL, formatState(currentState))
			continue
		}

		if currentState != previousState {
			log.Printf("[NOTIFICATION] Link %s (%s) changed from %s to %s!",
				link.ShortCode, link.OriginalURL, formatState(previousState), formatState(currentState))
		}
	}
}

// isUrlAccessible performs an HTTP HEAD request; 2xx and 3xx count as up.
func (m *UrlMonitor) isUrlAccessible(url string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
