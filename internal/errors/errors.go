// Package errors defines the error taxonomy shared by the service and the
// HTTP layer. Handlers match these sentinels to choose a status code;
// anything else is treated as an internal error.
package errors

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is returned when the submitted target URL is malformed
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidAlias is returned when a requested custom alias is syntactically unacceptable
var ErrInvalidAlias = errors.New("invalid custom alias format")

// ErrAliasTaken is returned when a requested custom alias already exists
var ErrAliasTaken = errors.New("custom alias already in use")

// ErrCodeConflict is returned by the link store when an insert hits the
// short-code uniqueness constraint
var ErrCodeConflict = errors.New("short code already exists")

// ErrShortCodeNotFound is returned when a short code doesn't exist in the database
var ErrShortCodeNotFound = errors.New("short code not found")

// ErrLinkGone is returned when a link exists but is inactive or expired
var ErrLinkGone = errors.New("link is inactive or expired")

// ErrGenerationExhausted is returned when we can't generate a unique short
// code within the retry budget
var ErrGenerationExhausted = errors.New("failed to generate unique short code")

// ErrRateLimited is returned when the admission layer denies a request for
// exceeding its category's window limit
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrBlocked is returned when the admission layer rejects a request as suspicious
var ErrBlocked = errors.New("request blocked for security reasons")

// ErrBackendUnavailable wraps failures of the counting or persistence
// backends. In the rate-limiting and security-logging paths it is recovered
// as fail-open; in the link store paths it is fatal to the request.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrClickRecordingFailed is returned when persisting a click event fails
type ErrClickRecordingFailed struct {
	LinkID uint
	Reason string
}

func (e ErrClickRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record click for link %d: %s", e.LinkID, e.Reason)
}
