// Package throttle implements tenant-wide Graph throttle state sharing.
// Runbook workers for one tenant draw on a single Graph throttling budget;
// a Retry-After observed by one worker is stored in Redis so sibling
// workers hold off too instead of burning the budget further.
package throttle

import (
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyHoldUntil  = "graph:throttle:hold_until"
	RedisKeyObserved   = "graph:throttle:observed_429s"
	RedisKeyLastUpdate = "graph:throttle:last_update"
)

// DefaultHold is the hold applied after a 429 that carries no Retry-After
// header.
const DefaultHold = 30 * time.Second

// State represents the shared throttle state for one tenant.
type State struct {
	// HoldUntil is the timestamp until which no worker should issue
	// requests. Derived from the most recent Retry-After observation.
	HoldUntil time.Time `json:"hold_until"`

	// Observed429s counts throttling responses seen since the state was
	// first written.
	Observed429s int64 `json:"observed_429s"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsActive reports whether a hold is currently in force.
func (s *State) IsActive() bool {
	return time.Now().Before(s.HoldUntil)
}

// Remaining returns the duration until the hold expires.
// Returns 0 if no hold is active.
func (s *State) Remaining() time.Duration {
	d := time.Until(s.HoldUntil)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
