// Package runbook wires the request engine, batch iterator, dry-run gate,
// and statistics into the top-level run loop every runbook shares:
// authenticate, fetch the working set, process it in batches, return a
// summary.
package runbook

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/batch"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/dryrun"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/graph"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/logging"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/stats"
)

// Prometheus metrics for runbook executions.
var (
	runbookRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runbook_runs_total",
		Help: "Total runbook runs by name and result",
	}, []string{"runbook", "result"})

	runbookRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "runbook_run_duration_seconds",
		Help:    "Runbook run duration in seconds by name",
		Buckets: []float64{1, 10, 60, 300, 900, 3600},
	}, []string{"runbook"})
)

// Summary is the structured record a run returns to the automation
// platform: the final counters plus run metadata.
type Summary struct {
	Runbook string         `json:"runbook"`
	Stats   stats.Snapshot `json:"stats"`
	Items   int            `json:"items"`
	Batches int            `json:"batches"`
	Elapsed time.Duration  `json:"elapsed"`
	DryRun  bool           `json:"dry_run"`
}

// FetchFunc retrieves the run's full working set.
type FetchFunc[T any] func(ctx context.Context, client *graph.Client) ([]T, error)

// Runner executes one runbook's run loop over items of type T.
type Runner[T any] struct {
	name     string
	client   *graph.Client
	gate     *dryrun.Gate
	batchCfg batch.Config
	logger   zerolog.Logger
}

// NewRunner creates a runner. The gate is consulted by the caller's
// per-item logic for every mutation; the runner records its state in the
// summary.
func NewRunner[T any](name string, client *graph.Client, gate *dryrun.Gate, batchCfg batch.Config) *Runner[T] {
	return &Runner[T]{
		name:     name,
		client:   client,
		gate:     gate,
		batchCfg: batchCfg,
		logger:   logging.NewLogger("runbook").With().Str("runbook", name).Logger(),
	}
}

// Gate returns the run's dry-run gate for per-item logic.
func (r *Runner[T]) Gate() *dryrun.Gate {
	return r.gate
}

// Client returns the run's Graph client for per-item logic.
func (r *Runner[T]) Client() *graph.Client {
	return r.client
}

// Run executes the full run loop: authenticate fail-fast, fetch the working
// set, iterate it in batches, and build the summary. An authentication or
// fetch failure aborts the run with no summary; per-item failures are
// absorbed into the error counter by the batch iterator.
func (r *Runner[T]) Run(ctx context.Context, fetch FetchFunc[T], process batch.ItemFunc[T]) (*Summary, error) {
	start := time.Now()
	defer func() {
		runbookRunDuration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())
	}()

	r.logger.Info().
		Bool("dry_run", r.gate.Enabled()).
		Int("batch_size", r.batchCfg.BatchSize).
		Msg("Runbook run starting")

	if err := r.client.Authenticate(ctx); err != nil {
		runbookRunsTotal.WithLabelValues(r.name, "auth_failed").Inc()
		r.logger.Error().Err(err).Msg("Runbook aborted: authentication failed")
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	items, err := fetch(ctx, r.client)
	if err != nil {
		runbookRunsTotal.WithLabelValues(r.name, "fetch_failed").Inc()
		r.logger.Error().Err(err).Msg("Runbook aborted: working set fetch failed")
		return nil, fmt.Errorf("fetch working set: %w", err)
	}

	counters, err := batch.Run(ctx, r.batchCfg, items, process)
	if err != nil {
		runbookRunsTotal.WithLabelValues(r.name, "aborted").Inc()
		r.logger.Error().Err(err).Msg("Runbook aborted during batch iteration")
		return nil, err
	}

	total := len(items)
	windows := 0
	if r.batchCfg.BatchSize > 0 {
		windows = (total + r.batchCfg.BatchSize - 1) / r.batchCfg.BatchSize
	}

	summary := &Summary{
		Runbook: r.name,
		Stats:   counters.Snapshot(),
		Items:   total,
		Batches: windows,
		Elapsed: time.Since(start),
		DryRun:  r.gate.Enabled(),
	}

	runbookRunsTotal.WithLabelValues(r.name, "completed").Inc()
	r.logger.Info().
		Int("items", summary.Items).
		Int("batches", summary.Batches).
		Dur("elapsed", summary.Elapsed).
		Int64("updated", counters.Get(stats.Updated)).
		Int64("errors", counters.Get(stats.Errors)).
		Bool("dry_run", summary.DryRun).
		Msg("Runbook run complete")

	return summary, nil
}
