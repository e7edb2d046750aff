package models

import "time"

// Link represents a shortened link stored in the database.
// The short code (or the custom alias that replaces it) is globally unique
// and never changes once the row is inserted; ClickCount only ever grows,
// and only through the redirect path.
type Link struct {
	ID uint `gorm:"primaryKey"`

	// OriginalURL is the destination the short code redirects to.
	OriginalURL string `gorm:"size:2048;not null"`

	// ShortCode is the path segment used to resolve the link. When a custom
	// alias is requested it becomes the short code; otherwise a random
	// 6-character alphanumeric code is generated.
	ShortCode string `gorm:"uniqueIndex;size:50;not null"`

	// CustomAlias is set only for caller-chosen codes. Nullable so that
	// generated links don't collide on an empty string in the unique index.
	CustomAlias *string `gorm:"uniqueIndex;size:50"`

	// Domain is an optional vanity-domain label used when rendering the
	// full short URL. It has no effect on resolution.
	Domain string `gorm:"size:255"`

	// AccountID references the owning account in the external user store.
	// Nil means the link was created anonymously.
	AccountID *uint `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`

	// ExpiresAt, when set, makes the link resolve as gone once passed.
	ExpiresAt *time.Time

	// ClickCount is incremented by the click workers after each recorded
	// redirect. It may briefly lag behind the number of Click rows.
	ClickCount int64 `gorm:"not null;default:0"`

	// IsActive is a soft kill switch; inactive links resolve as gone. The
	// column carries no default: a Go false is the zero value, and a column
	// default would silently overwrite it on insert. Creators set the flag
	// explicitly.
	IsActive bool `gorm:"not null"`
}

// FullShortURL renders the complete resolvable URL for this link.
// baseURL is the service's own base URL without a trailing slash; a vanity
// domain, when present, takes precedence.
func (l *Link) FullShortURL(baseURL string) string {
	if l.Domain != "" {
		return "https://" + l.Domain + "/" + l.ShortCode
	}
	return baseURL + "/" + l.ShortCode
}

// Expired reports whether the link's expiry time is set and has passed.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
