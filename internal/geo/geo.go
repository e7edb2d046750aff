// Package geo abstracts IP geolocation as a pluggable external lookup.
// The redirect path tolerates lookup failure: an empty location is always
// an acceptable answer.
package geo

import "context"

// Location is a coarse geographic position for an IP address.
type Location struct {
	Country string // ISO 3166-1 alpha-2 code
	City    string
}

// Locator resolves an IP address to a location. Implementations wrap
// external services (MaxMind, ipinfo, ...); the core ships only the no-op.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// NoopLocator is the default Locator; it knows nothing about any IP.
type NoopLocator struct{}

// Locate always returns an empty location.
func (NoopLocator) Locate(context.Context, string) (Location, error) {
	return Location{}, nil
}
