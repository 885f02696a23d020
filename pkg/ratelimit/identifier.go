package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentifier is the shared bucket used when no caller address can
// be resolved. All such callers then share one global limit. This is a
// documented weakness of address-based identification, kept deliberately:
// inventing per-request identifiers would disable the limit entirely.
const UnknownIdentifier = "unknown"

// KeyFunc derives a rate-limit identifier from a request. Returning an
// empty string falls back to the address-based resolution chain.
type KeyFunc func(r *http.Request) string

// ClientIdentifier resolves the caller identity used as the rate-limit
// key: the caller-supplied key function, then the first entry of the
// X-Forwarded-For chain, then X-Real-IP, then the direct connection
// address, then the shared "unknown" bucket.
func ClientIdentifier(r *http.Request, keyFn KeyFunc) string {
	if keyFn != nil {
		if key := keyFn(r); key != "" {
			return key
		}
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The first value is the originating client; later entries are
		// proxies appending themselves.
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return UnknownIdentifier
}
