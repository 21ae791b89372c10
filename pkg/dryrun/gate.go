// Package dryrun provides the cross-cutting WhatIf gate consulted by every
// mutating operation. The gate is constructed once at run start and never
// changes for the run's duration; it is threaded explicitly through call
// sites rather than read from process state.
package dryrun

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/logging"
)

var dryRunSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "runbook_dryrun_suppressed_total",
	Help: "Total mutating operations suppressed by dry-run mode",
})

// Change describes the effect a mutating operation would have, for dry-run
// effect logging.
type Change struct {
	// Resource identifies the entity being changed (e.g. a device ID).
	Resource string

	// Field is the attribute being changed (e.g. "deviceCategory").
	Field string

	// Before is the current value.
	Before string

	// After is the value the operation would write.
	After string
}

// Gate decides whether mutating operations are performed or only logged.
type Gate struct {
	enabled bool
	logger  zerolog.Logger
}

// NewGate creates a gate. enabled=true means dry-run: mutations are logged
// and suppressed.
func NewGate(enabled bool, logger zerolog.Logger) *Gate {
	return &Gate{
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether dry-run mode is active.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Apply performs the mutation described by change via apply, unless dry-run
// is active, in which case the would-be effect is logged with the dry_run
// marker and a synthetic success is returned without contacting any
// external system.
func (g *Gate) Apply(ctx context.Context, change Change, apply func(ctx context.Context) error) error {
	if g.enabled {
		dryRunSuppressedTotal.Inc()
		logging.DryRun(g.logger).
			Str("resource", change.Resource).
			Str("field", change.Field).
			Str("before", change.Before).
			Str("after", change.After).
			Msg("WhatIf: mutation suppressed")
		return nil
	}

	return apply(ctx)
}
