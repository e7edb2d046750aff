// Package middleware holds the Gin middleware fronting every route: the
// security gate that admits or rejects requests, and the response headers.
package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/ratelimit"
	"github.com/linkak/linkak/internal/security"
)

// healthPath is the liveness endpoint; it bypasses the gate entirely so
// that probes keep working even when a client identity would be denied.
const healthPath = "/health"

// maxInspectBody caps how much of a request body the inspector reads.
// Larger bodies are scanned only over this prefix.
const maxInspectBody = 64 * 1024

// allowedContentTypes is the allowlist for state-changing requests.
var allowedContentTypes = map[string]bool{
	"application/json":                  true,
	"application/x-www-form-urlencoded": true,
	"multipart/form-data":               true,
	"text/plain":                        true,
}

// Gate is the request-admission layer: it resolves a client identity,
// enforces per-category rate limits, scans for suspicious patterns and
// validates content types, then watches the response for security-relevant
// outcomes. One Gate instance is built at service start and shared by every
// request.
type Gate struct {
	limiter       *ratelimit.Limiter
	sink          security.EventSink
	slowThreshold time.Duration
}

// NewGate creates a security gate. slowThreshold bounds what counts as a
// slow request in the post-response audit.
func NewGate(limiter *ratelimit.Limiter, sink security.EventSink, slowThreshold time.Duration) *Gate {
	if slowThreshold <= 0 {
		slowThreshold = 5 * time.Second
	}
	return &Gate{limiter: limiter, sink: sink, slowThreshold: slowThreshold}
}

// Handler returns the gin middleware enforcing the gate.
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == healthPath {
			c.Next()
			return
		}

		start := time.Now()
		clientID := security.ClientToken(security.ClientIP(c.Request), c.Request.UserAgent())

		// The audit covers every exit, including requests the gate itself
		// aborts: a 429 or 403 issued here still counts as a security response.
		defer g.audit(c, clientID, start)

		category := ratelimit.Categorize(c.Request.URL.Path)
		if !g.limiter.Allow(c.Request.Context(), clientID, category) {
			log.Printf("Rate limit exceeded for %s on %s (category %s)",
				clientID, c.Request.URL.Path, category.Name)
			c.Error(apperrors.ErrRateLimited)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "Rate limit exceeded. Please try again later."})
			return
		}

		if match, hit := security.Inspect(c.Request.Method, c.Request.URL.String(),
			g.peekBody(c), c.Request.Header); hit {
			g.emit(c, clientID, "suspicious_request", map[string]any{
				"where":   match.Where,
				"pattern": match.Pattern,
				"blocked": true,
			})
			c.Error(apperrors.ErrBlocked)
			c.AbortWithStatusJSON(http.StatusForbidden,
				gin.H{"error": "Request blocked for security reasons"})
			return
		}

		if rejected := g.checkContentType(c, clientID); rejected {
			return
		}

		c.Next()
	}
}

// audit runs after the response is written, whether a handler produced it or
// the gate aborted the request. Emission failures never affect the response.
func (g *Gate) audit(c *gin.Context, clientID string, start time.Time) {
	duration := time.Since(start)
	if duration > g.slowThreshold {
		g.emit(c, clientID, "slow_request", map[string]any{
			"duration_ms": duration.Milliseconds(),
			"status_code": c.Writer.Status(),
		})
	}
	switch c.Writer.Status() {
	case http.StatusUnauthorized:
		g.emit(c, clientID, "authentication_failure", map[string]any{
			"status_code": http.StatusUnauthorized,
		})
	case http.StatusForbidden, http.StatusTooManyRequests:
		g.emit(c, clientID, "security_response", map[string]any{
			"status_code": c.Writer.Status(),
		})
	}
}

// peekBody reads up to maxInspectBody bytes of the request body for the
// inspector and restores the stream so handlers can still bind it.
func (g *Gate) peekBody(c *gin.Context) []byte {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInspectBody))
	if err != nil {
		// Unreadable body: let the handler deal with it.
		return nil
	}
	rest := c.Request.Body
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), rest), rest}
	return body
}

// checkContentType rejects state-changing requests whose declared content
// type is outside the allowlist. Reports true when the request was aborted.
func (g *Gate) checkContentType(c *gin.Context, clientID string) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	raw := c.ContentType()
	if raw == "" {
		return false
	}
	contentType := strings.TrimSpace(strings.Split(raw, ";")[0])
	if allowedContentTypes[contentType] {
		return false
	}
	g.emit(c, clientID, "invalid_content_type", map[string]any{
		"content_type": contentType,
	})
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid content type"})
	return true
}

// emit records a security event, swallowing sink failures; observability
// must never break the request path.
func (g *Gate) emit(c *gin.Context, clientID, eventType string, details map[string]any) {
	ev := security.Event{
		Type:      eventType,
		Client:    clientID,
		Endpoint:  c.Request.URL.Path,
		Method:    c.Request.Method,
		URL:       c.Request.URL.String(),
		Timestamp: time.Now(),
		Details:   details,
	}
	if err := g.sink.Record(c.Request.Context(), ev); err != nil {
		log.Printf("Failed to record security event %s: %v", eventType, err)
	}
}
