package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Key identifies a cached GET response by its normalized request URL.
type Key struct {
	// URL is the absolute request URL, including query string.
	URL string
}

// String generates a deterministic cache key string.
// Format: graph:page:<hex digest of the normalized URL>
//
// Normalization sorts query parameters so logically identical requests
// share one entry regardless of parameter order.
func (k Key) String() string {
	normalized := k.URL

	if u, err := url.Parse(k.URL); err == nil {
		q := u.Query()
		u.RawQuery = q.Encode() // Encode emits keys in sorted order
		u.Fragment = ""
		normalized = u.String()
	}

	sum := sha256.Sum256([]byte(strings.ToLower(normalized)))
	return "graph:page:" + hex.EncodeToString(sum[:16])
}
