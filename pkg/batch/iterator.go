// Package batch partitions an ordered item collection into fixed-size
// windows, drives a caller-supplied per-item callback, and aggregates
// outcomes into run-wide statistics. Item failures never abort the run;
// they land in the error counter.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/stats"
)

// Prometheus metrics for batch iteration.
var (
	batchWindowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runbook_batch_windows_total",
		Help: "Total batch windows processed",
	})

	batchItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runbook_batch_items_total",
		Help: "Total items processed across all batch windows",
	})

	batchItemErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runbook_batch_item_errors_total",
		Help: "Total per-item failures converted to error counts",
	})

	batchDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "runbook_batch_delay_seconds",
		Help:    "Inter-batch delay durations",
		Buckets: []float64{1, 5, 10, 30, 60},
	})
)

// Config holds batch iteration parameters.
type Config struct {
	// BatchSize is the window size (items per batch). Must be >= 1.
	BatchSize int

	// InterBatchDelay is the pause after every non-final window.
	InterBatchDelay time.Duration

	// MaxActions caps the stats.Updated counter per run when > 0. Once
	// reached, remaining items are counted under SkippedCapReached without
	// invoking the callback; iteration still visits every item so each one
	// lands in exactly one terminal counter.
	MaxActions int64
}

// DefaultConfig returns the batch parameters most runbooks use.
func DefaultConfig() Config {
	return Config{
		BatchSize:       50,
		InterBatchDelay: 10 * time.Second,
	}
}

// ItemFunc processes one item and records its terminal outcome on counters.
// A returned error (or a panic) is converted into a stats.Errors increment
// by the iterator; the callback must not increment stats.Errors itself on
// the error path, or items would be double-counted.
type ItemFunc[T any] func(ctx context.Context, item T, counters *stats.Counters) error

// Run iterates items in ceil(len(items)/BatchSize) ascending windows,
// invoking fn once per item in supplied order, and returns the aggregated
// counters. The context cancels the inter-batch delay; cancellation aborts
// the run with the context error.
func Run[T any](ctx context.Context, cfg Config, items []T, fn ItemFunc[T]) (*stats.Counters, error) {
	counters := stats.New()
	return RunWith(ctx, cfg, items, counters, fn)
}

// RunWith is Run with a caller-supplied Counters, for runs that register
// extra counter names or share counters across phases.
func RunWith[T any](ctx context.Context, cfg Config, items []T, counters *stats.Counters, fn ItemFunc[T]) (*stats.Counters, error) {
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1 (got %d)", cfg.BatchSize)
	}
	if fn == nil {
		return nil, fmt.Errorf("item callback is required")
	}

	logger := log.With().Str("component", "batch-iterator").Logger()

	total := len(items)
	windows := (total + cfg.BatchSize - 1) / cfg.BatchSize

	logger.Info().
		Int("items", total).
		Int("batches", windows).
		Int("batch_size", cfg.BatchSize).
		Msg("Starting batch run")

	for w := 0; w < windows; w++ {
		start := w * cfg.BatchSize
		end := start + cfg.BatchSize
		if end > total {
			end = total
		}

		for _, item := range items[start:end] {
			processItem(ctx, cfg, item, counters, fn, logger)
			batchItemsTotal.Inc()
		}

		batchWindowsTotal.Inc()
		logger.Info().
			Int("batch", w+1).
			Int("batches", windows).
			Int("batch_items", end-start).
			Int64("errors", counters.Get(stats.Errors)).
			Msg("Batch window complete")

		// No delay after the final window.
		if w < windows-1 && cfg.InterBatchDelay > 0 {
			batchDelaySeconds.Observe(cfg.InterBatchDelay.Seconds())
			select {
			case <-ctx.Done():
				return counters, fmt.Errorf("inter-batch delay: %w", ctx.Err())
			case <-time.After(cfg.InterBatchDelay):
			}
		}
	}

	return counters, nil
}

// processItem runs fn for one item, converting errors and panics into a
// single stats.Errors increment so one bad item never aborts the run.
func processItem[T any](ctx context.Context, cfg Config, item T, counters *stats.Counters, fn ItemFunc[T], logger zerolog.Logger) {
	if cfg.MaxActions > 0 && counters.Get(stats.Updated) >= cfg.MaxActions {
		counters.Inc(stats.SkippedCapReached)
		logger.Debug().
			Int64("max_actions", cfg.MaxActions).
			Msg("Action cap reached - item skipped")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			counters.Inc(stats.Errors)
			batchItemErrorsTotal.Inc()
			logger.Warn().
				Interface("panic", r).
				Msg("Item processing panicked - counted as error")
		}
	}()

	if err := fn(ctx, item, counters); err != nil {
		counters.Inc(stats.Errors)
		batchItemErrorsTotal.Inc()
		logger.Warn().Err(err).Msg("Item processing failed - counted as error")
	}
}
