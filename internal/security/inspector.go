package security

import (
	"net/http"
	"strings"
)

// suspiciousPatterns is the fixed denylist of substrings associated with
// injection, XSS, path-traversal and command-execution attempts. It is a
// flat ordered list scanned with case-insensitive containment; it is a
// heuristic filter, not a parser, and false positives are accepted.
var suspiciousPatterns = []string{
	"union select",
	"script>",
	"../",
	"<?php",
	"eval(",
	"base64_decode",
	"system(",
	"exec(",
	"passthru(",
	"shell_exec",
}

// allowedMethods is the set of HTTP methods that are not themselves
// considered suspicious.
var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Match describes the first suspicious signature found in a request.
type Match struct {
	// Where names the scanned location: "url", "body",
	// "header:<Name>" or "method".
	Where string

	// Pattern is the denylist entry that matched, or the offending method.
	Pattern string
}

// Inspect scans a request's full URL, body bytes and headers for the first
// matching denylist signature, in that order, stopping at the first hit.
// It also flags any HTTP method outside the standard set. A clean request
// returns ok=false; that is not an error condition.
func Inspect(method, fullURL string, body []byte, header http.Header) (Match, bool) {
	lowerURL := strings.ToLower(fullURL)
	for _, p := range suspiciousPatterns {
		if strings.Contains(lowerURL, p) {
			return Match{Where: "url", Pattern: p}, true
		}
	}

	if len(body) > 0 {
		// Best-effort UTF-8: invalid bytes are simply never going to
		// match an ASCII signature, so no decode step is needed.
		lowerBody := strings.ToLower(string(body))
		for _, p := range suspiciousPatterns {
			if strings.Contains(lowerBody, p) {
				return Match{Where: "body", Pattern: p}, true
			}
		}
	}

	for name, values := range header {
		for _, v := range values {
			lowerVal := strings.ToLower(v)
			for _, p := range suspiciousPatterns {
				if strings.Contains(lowerVal, p) {
					return Match{Where: "header:" + name, Pattern: p}, true
				}
			}
		}
	}

	if !allowedMethods[method] {
		return Match{Where: "method", Pattern: method}, true
	}

	return Match{}, false
}
