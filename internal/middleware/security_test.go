package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/middleware"
	"github.com/linkak/linkak/internal/ratelimit"
	"github.com/linkak/linkak/internal/security"
)

// recordingSink captures emitted security events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []security.Event
}

func (s *recordingSink) Record(_ context.Context, ev security.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) ofType(eventType string) []security.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []security.Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestRouter(sink security.EventSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	gate := middleware.NewGate(limiter, sink, 0)

	router := gin.New()
	router.Use(middleware.SecurityHeaders())
	router.Use(gate.Handler())
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/:shortCode", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/v1/links", func(c *gin.Context) { c.Status(http.StatusCreated) })
	router.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func doRequest(router *gin.Engine, method, target, ip string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = ip + ":40000"
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGate_BlocksSuspiciousURL(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	// Mixed casing: the scan lowercases before matching. The query is set
	// directly because a request-target with raw spaces is not a valid
	// request line, while percent-encoding it would hide the pattern: the
	// scan matches against the still-encoded URL string.
	w := doRequest(router, http.MethodGet, "/abc123", "203.0.113.1", func(r *http.Request) {
		r.URL.RawQuery = "q=1 UnIoN SeLeCt 1"
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "security reasons")
	assert.NotContains(t, w.Body.String(), "union", "response must not disclose the signature")

	events := sink.ofType("suspicious_request")
	require.Len(t, events, 1, "exactly one suspicious_request event")
	assert.Equal(t, "union select", events[0].Details["pattern"])

	// The gate's own 403 goes through the post-response audit too.
	responses := sink.ofType("security_response")
	require.Len(t, responses, 1)
	assert.Equal(t, http.StatusForbidden, responses[0].Details["status_code"])
}

func TestGate_HealthBypassesAllChecks(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	// Far more requests than any category budget allows.
	for i := 0; i < 50; i++ {
		w := doRequest(router, http.MethodGet, "/health", "203.0.113.2")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, sink.events)
}

func TestGate_LoginCategoryLimit(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	for i := 1; i <= 5; i++ {
		w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "203.0.113.3")
		assert.Equal(t, http.StatusOK, w.Code, "login attempt %d should be admitted", i)
	}

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "203.0.113.3")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "6th login attempt should be denied")
	assert.NotContains(t, w.Body.String(), "login", "response must not disclose the limiter key")

	// A rate-limit denial is itself a security response.
	responses := sink.ofType("security_response")
	require.Len(t, responses, 1)
	assert.Equal(t, http.StatusTooManyRequests, responses[0].Details["status_code"])
}

func TestGate_RateLimitIsPerClient(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	for i := 0; i < 6; i++ {
		doRequest(router, http.MethodPost, "/api/v1/auth/login", "203.0.113.4")
	}

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "203.0.113.5")
	assert.Equal(t, http.StatusOK, w.Code, "a different client keeps its own budget")
}

func TestGate_RejectsUnknownContentType(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	w := doRequest(router, http.MethodPost, "/api/v1/links", "203.0.113.6", func(r *http.Request) {
		r.Header.Set("Content-Type", "application/xml")
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, sink.ofType("invalid_content_type"), 1)
}

func TestGate_AllowsJSONWithCharset(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	w := doRequest(router, http.MethodPost, "/api/v1/links", "203.0.113.7", func(r *http.Request) {
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGate_BlockedRequestEmitsSecurityResponse(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	doRequest(router, http.MethodGet, "/abc123", "203.0.113.8", func(r *http.Request) {
		r.Header.Set("Referer", "http://evil.example/?p=<script>x</script>")
	})

	require.Len(t, sink.ofType("suspicious_request"), 1)
}

func TestGate_DenialsAttachSentinelErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	gate := middleware.NewGate(limiter, &recordingSink{}, 0)

	// Earlier middleware resumes after an abort, so it can observe the
	// errors the gate attached to the context.
	var seen []error
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			seen = append(seen, e.Err)
		}
	})
	router.Use(gate.Handler())
	router.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/:shortCode", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 6; i++ {
		doRequest(router, http.MethodPost, "/api/v1/auth/login", "203.0.113.20")
	}
	require.Len(t, seen, 1)
	assert.ErrorIs(t, seen[0], apperrors.ErrRateLimited)

	seen = nil
	doRequest(router, http.MethodGet, "/abc123", "203.0.113.21", func(r *http.Request) {
		r.URL.RawQuery = "q=../../etc/passwd"
	})
	require.Len(t, seen, 1)
	assert.ErrorIs(t, seen[0], apperrors.ErrBlocked)
}

func TestGate_BodyStillReadableAfterInspection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	gate := middleware.NewGate(limiter, &recordingSink{}, 0)

	var got string
	router := gin.New()
	router.Use(gate.Handler())
	router.POST("/api/v1/links", func(c *gin.Context) {
		var payload struct {
			URL string `json:"url"`
		}
		require.NoError(t, c.ShouldBindJSON(&payload))
		got = payload.URL
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links",
		strings.NewReader(`{"url":"https://example.com"}`))
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "https://example.com", got)
}

func TestSecurityHeaders_SetOnEveryResponse(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(sink)

	w := doRequest(router, http.MethodGet, "/abc123", "203.0.113.10")

	h := w.Header()
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, h.Get("Strict-Transport-Security"), "no HSTS over plain HTTP")
}
