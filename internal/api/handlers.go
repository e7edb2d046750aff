package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/geo"
	"github.com/linkak/linkak/internal/models"
	"github.com/linkak/linkak/internal/services"
	"github.com/linkak/linkak/internal/useragent"
)

// accountHeader carries the opaque account identifier resolved by the
// external auth collaborator in front of this service.
const accountHeader = "X-Account-ID"

// ClickEventsChannel is the global channel feeding the click workers.
// The redirect handler enqueues into it without ever blocking.
var ClickEventsChannel chan models.ClickEvent

// SetupRoutes configures all Gin API routes and injects dependencies.
func SetupRoutes(router *gin.Engine, linkService *services.LinkService,
	analyticsService *services.AnalyticsService, locator geo.Locator,
	baseURL string, bufferSize int) {
	if ClickEventsChannel == nil {
		ClickEventsChannel = make(chan models.ClickEvent, bufferSize)
	}
	if locator == nil {
		locator = geo.NoopLocator{}
	}

	// Liveness route; the security gate skips it.
	router.GET("/health", HealthCheckHandler)

	api := router.Group("/api/v1")
	{
		api.POST("/links", CreateShortLinkHandler(linkService, baseURL))
		api.GET("/links", ListLinksHandler(linkService, baseURL))
		api.GET("/links/:shortCode/stats", GetLinkStatsHandler(analyticsService, baseURL))
		api.GET("/analytics/summary", AccountSummaryHandler(analyticsService))
	}

	// Redirection route at root level (e.g. localhost:8080/abc123).
	router.GET("/:shortCode", RedirectHandler(linkService, locator))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateLinkRequest is the JSON body for creating a shortened link.
type CreateLinkRequest struct {
	URL         string `json:"url" binding:"required"`
	CustomAlias string `json:"custom_alias"`
	Domain      string `json:"domain"`
	ExpiresDays int    `json:"expires_days"`
}

// CreateShortLinkHandler handles the creation of a shortened URL. Anonymous
// creation is allowed; when the account header is present the link is owned
// by that account.
func CreateShortLinkHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		link, err := linkService.CreateLink(services.CreateLinkInput{
			OriginalURL: req.URL,
			CustomAlias: req.CustomAlias,
			Domain:      req.Domain,
			AccountID:   optionalAccountID(c),
			ExpiresDays: req.ExpiresDays,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidURL):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL format"})
			case errors.Is(err, apperrors.ErrInvalidAlias):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid custom alias format"})
			case errors.Is(err, apperrors.ErrAliasTaken):
				c.JSON(http.StatusConflict, gin.H{"error": "Custom alias already in use"})
			case errors.Is(err, apperrors.ErrGenerationExhausted):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to generate unique short code. Please try again later."})
			default:
				log.Printf("Error creating link: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"short_code":     link.ShortCode,
			"original_url":   link.OriginalURL,
			"full_short_url": link.FullShortURL(baseURL),
			"expires_at":     link.ExpiresAt,
			"created_at":     link.CreatedAt,
		})
	}
}

// RedirectHandler resolves a short code and issues the redirect. A click
// event is queued for the workers; a full buffer drops the event rather
// than delaying the user.
func RedirectHandler(linkService *services.LinkService, locator geo.Locator) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		link, err := linkService.Resolve(shortCode)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrShortCodeNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
			case errors.Is(err, apperrors.ErrLinkGone):
				c.JSON(http.StatusGone, gin.H{"error": "Short URL is no longer available"})
			default:
				log.Printf("Error resolving %s: %v", shortCode, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		rawUA := c.Request.UserAgent()
		cls := useragent.Classify(rawUA)
		ip := c.ClientIP()

		// The lookup is optional by contract; any failure leaves the
		// location empty.
		loc, err := locator.Locate(c.Request.Context(), ip)
		if err != nil {
			loc = geo.Location{}
		}

		event := models.ClickEvent{
			LinkID:     link.ID,
			Timestamp:  time.Now(),
			Referrer:   c.Request.Referer(),
			UserAgent:  rawUA,
			IPAddress:  ip,
			Country:    loc.Country,
			City:       loc.City,
			DeviceType: cls.DeviceType,
			Browser:    cls.Browser,
			OS:         cls.OS,
		}

		select {
		case ClickEventsChannel <- event:
		default:
			log.Printf("WARNING: click events channel is full, dropping event for %s (ID: %d)",
				shortCode, link.ID)
		}

		c.Redirect(http.StatusFound, link.OriginalURL)
	}
}

// GetLinkStatsHandler returns the analytics view of one link, scoped to the
// calling account.
func GetLinkStatsHandler(analyticsService *services.AnalyticsService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := requireAccountID(c)
		if !ok {
			return
		}
		shortCode := c.Param("shortCode")

		stats, err := analyticsService.LinkStats(shortCode, accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrShortCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
				return
			}
			log.Printf("Error retrieving stats for %s: %v", shortCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		recent := make([]gin.H, 0, len(stats.RecentClicks))
		for _, click := range stats.RecentClicks {
			recent = append(recent, gin.H{
				"timestamp":   click.Timestamp,
				"referrer":    click.Referrer,
				"device_type": click.DeviceType,
				"browser":     click.Browser,
				"os":          click.OS,
				"country":     click.Country,
				"city":        click.City,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"short_code":     stats.Link.ShortCode,
			"original_url":   stats.Link.OriginalURL,
			"full_short_url": stats.Link.FullShortURL(baseURL),
			"click_count":    stats.Link.ClickCount,
			"created_at":     stats.Link.CreatedAt,
			"summary":        stats.Summary,
			"recent_clicks":  recent,
		})
	}
}

// ListLinksHandler returns the calling account's links, newest first.
func ListLinksHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := requireAccountID(c)
		if !ok {
			return
		}

		links, err := linkService.GetLinksByAccount(accountID)
		if err != nil {
			log.Printf("Error listing links for account %d: %v", accountID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		out := make([]gin.H, 0, len(links))
		for _, link := range links {
			out = append(out, gin.H{
				"short_code":     link.ShortCode,
				"original_url":   link.OriginalURL,
				"full_short_url": link.FullShortURL(baseURL),
				"click_count":    link.ClickCount,
				"is_active":      link.IsActive,
				"created_at":     link.CreatedAt,
				"expires_at":     link.ExpiresAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"links": out})
	}
}

// AccountSummaryHandler returns the account-wide analytics rollup over a
// trailing day window (default 30).
func AccountSummaryHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := requireAccountID(c)
		if !ok {
			return
		}

		days := 0
		if raw := c.Query("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
				return
			}
			days = parsed
		}

		summary, err := analyticsService.AccountSummary(accountID, days)
		if err != nil {
			log.Printf("Error building summary for account %d: %v", accountID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// optionalAccountID reads the account header, returning nil when absent so
// the link is created anonymously.
func optionalAccountID(c *gin.Context) *uint {
	raw := c.GetHeader(accountHeader)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	v := uint(id)
	return &v
}

// requireAccountID rejects requests to account-scoped endpoints that carry
// no usable account header.
func requireAccountID(c *gin.Context) (uint, bool) {
	raw := c.GetHeader(accountHeader)
	id, err := strconv.ParseUint(raw, 10, 32)
	if raw == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid account identifier"})
		return 0, false
	}
	return uint(id), true
}
