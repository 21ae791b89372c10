// Package cache provides a short-TTL Redis cache for Graph GET responses.
// Several report runbooks consume the same large collections (managed
// devices, discovered apps); caching pages for a few minutes lets
// overlapping runs pull each page once.
package cache

import (
	"time"
)

// Entry represents a cached Graph GET response.
type Entry struct {
	// Body is the raw response body.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// FetchedAt is when the response was retrieved from Graph.
	FetchedAt time.Time `json:"fetched_at"`

	// Expires is when the entry becomes stale. Graph list endpoints carry
	// no usable cache headers, so this is FetchedAt plus the configured TTL.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
