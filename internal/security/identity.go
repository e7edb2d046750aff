// Package security implements the request-admission primitives: client
// identification, suspicious-pattern inspection and security-event sinks.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
)

// tokenLen is the length of the hex client token. 16 hex chars keep the
// token short enough for counter keys while making the underlying IP and
// User-Agent unrecoverable.
const tokenLen = 16

// ClientToken derives a stable, privacy-preserving identifier for a
// requester from its address and raw User-Agent string. The same inputs
// always produce the same token; an empty User-Agent is valid input.
func ClientToken(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:])[:tokenLen]
}

// ClientIP resolves the originating address of a request, preferring the
// X-Real-IP header set by a trusted reverse proxy over the raw socket
// address.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
