// Package useragent derives coarse device, browser and OS labels from a raw
// User-Agent string. It is a classifier, not a UA-parsing database: matching
// is case-insensitive substring containment against ordered token lists, and
// the order of the checks is part of the contract (a Chrome UA also contains
// "safari", but classifies as Chrome because that token is checked first).
package useragent

import "strings"

// Device type values.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Other is the fallback label for browser and OS when no token matches.
const Other = "Other"

// Classification is the derived view of one User-Agent string.
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
}

type rule struct {
	token string
	label string
}

// Ordered token lists. First match wins, so e.g. Chrome is detected before
// Safari even though Chrome UAs also contain "safari".
var (
	mobileTokens = []string{"mobile", "android", "iphone"}
	tabletTokens = []string{"tablet", "ipad"}

	browserRules = []rule{
		{"chrome", "Chrome"},
		{"firefox", "Firefox"},
		{"safari", "Safari"},
		{"edge", "Edge"},
		{"opera", "Opera"},
	}

	osRules = []rule{
		{"windows", "Windows"},
		{"mac", "MacOS"},
		{"linux", "Linux"},
		{"android", "Android"},
		{"ios", "iOS"},
		{"iphone", "iOS"},
		{"ipad", "iOS"},
	}
)

// Classify maps a raw User-Agent string to device type, browser and OS.
// The empty string classifies as a desktop with unknown browser and OS.
func Classify(userAgent string) Classification {
	ua := strings.ToLower(userAgent)
	return Classification{
		DeviceType: classifyDevice(ua),
		Browser:    firstMatch(ua, browserRules),
		OS:         firstMatch(ua, osRules),
	}
}

func classifyDevice(ua string) string {
	for _, tok := range mobileTokens {
		if strings.Contains(ua, tok) {
			return DeviceMobile
		}
	}
	for _, tok := range tabletTokens {
		if strings.Contains(ua, tok) {
			return DeviceTablet
		}
	}
	return DeviceDesktop
}

func firstMatch(ua string, rules []rule) string {
	for _, r := range rules {
		if strings.Contains(ua, r.token) {
			return r.label
		}
	}
	return Other
}
