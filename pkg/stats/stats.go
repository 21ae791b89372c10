// Package stats provides run-wide outcome counters for runbook executions.
// A single Counters instance is created per run, threaded through the batch
// iterator, and snapshotted once at the end to build the run summary.
package stats

import (
	"sort"
	"sync"
)

// Canonical terminal-outcome counter names. Every processed item increments
// exactly one of these (or a caller-registered terminal counter).
const (
	// Updated counts items whose remediation action was performed (or, in
	// dry-run mode, would have been performed).
	Updated = "updated"

	// NoChange counts items already in the desired state.
	NoChange = "no_change"

	// Errors counts items whose processing failed permanently.
	Errors = "errors"

	// Skipped counts items excluded by caller-side filtering.
	Skipped = "skipped"

	// SkippedCapReached counts items short-circuited after the per-run
	// action cap was hit.
	SkippedCapReached = "skipped_cap_reached"
)

// terminalNames are the counters that participate in the per-run total
// invariant: their sum equals the number of items observed by the iterator.
var terminalNames = []string{Updated, NoChange, Errors, Skipped, SkippedCapReached}

// Counters is a string-keyed set of integer counters with an optional
// secondary breakdown (e.g. per operating system). Increments are
// mutex-guarded so a future parallel iterator keeps the total invariant.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
	byDim  map[string]map[string]int64
}

// New creates a Counters pre-zeroed with the canonical terminal names plus
// any extra counter names the caller registers up front.
func New(extra ...string) *Counters {
	c := &Counters{
		counts: make(map[string]int64),
		byDim:  make(map[string]map[string]int64),
	}
	for _, name := range terminalNames {
		c.counts[name] = 0
	}
	for _, name := range extra {
		c.counts[name] = 0
	}
	return c
}

// Inc increments the named counter by one.
func (c *Counters) Inc(name string) {
	c.Add(name, 1)
}

// Add increments the named counter by n.
func (c *Counters) Add(name string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += n
}

// IncDim increments the named counter within a secondary dimension value
// (e.g. IncDim("Windows", stats.Updated)). Sub-counters for a new dimension
// value are auto-initialized to zero on first access.
func (c *Counters) IncDim(dimension, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.byDim[dimension]
	if !ok {
		sub = make(map[string]int64, len(terminalNames))
		for _, n := range terminalNames {
			sub[n] = 0
		}
		c.byDim[dimension] = sub
	}
	sub[name]++
}

// Get returns the current value of the named counter.
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// TerminalTotal returns the sum of all terminal-outcome counters.
func (c *Counters) TerminalTotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, name := range terminalNames {
		total += c.counts[name]
	}
	return total
}

// Snapshot is a read-only copy of all counters at one point in time.
type Snapshot struct {
	Counts      map[string]int64            `json:"counts"`
	ByDimension map[string]map[string]int64 `json:"by_dimension,omitempty"`
}

// Snapshot copies the current counter values. The returned maps are owned
// by the caller; later increments do not affect them.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Counts: make(map[string]int64, len(c.counts)),
	}
	for name, v := range c.counts {
		snap.Counts[name] = v
	}
	if len(c.byDim) > 0 {
		snap.ByDimension = make(map[string]map[string]int64, len(c.byDim))
		for dim, sub := range c.byDim {
			cp := make(map[string]int64, len(sub))
			for name, v := range sub {
				cp[name] = v
			}
			snap.ByDimension[dim] = cp
		}
	}
	return snap
}

// Names returns all registered counter names, sorted for deterministic
// summary output.
func (c *Counters) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.counts))
	for name := range c.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
