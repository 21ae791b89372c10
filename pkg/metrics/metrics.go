// Package metrics provides the centralized Prometheus metrics reference for
// the runbook engine. Metrics are defined in their respective packages
// (graph, batch, dryrun, throttle, cache, runbook) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the runbook engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/graph):
//   - graph_requests_total{method, status} (Counter): Total requests by method and HTTP status
//   - graph_request_duration_seconds{method} (Histogram): Request duration by method
//   - graph_errors_total{class} (Counter): Errors by class (client, server, throttle, network)
//
// Retry Metrics (pkg/graph):
//   - graph_retries_total{error_class} (Counter): Retry attempts by error class
//   - graph_retry_wait_seconds{error_class} (Histogram): Wait before retry (backoff or Retry-After)
//   - graph_retry_exhausted_total{error_class} (Counter): Requests that exhausted their retry budget
//
// Throttle Metrics (pkg/throttle):
//   - graph_throttle_hold_seconds (Gauge): Seconds remaining on the tenant-wide hold
//   - graph_throttle_blocks_total (Counter): Requests held back by shared throttle state
//   - graph_throttle_429s_total (Counter): 429 responses recorded in shared state
//
// Cache Metrics (pkg/cache):
//   - graph_cache_hits_total (Counter): Page cache hits
//   - graph_cache_misses_total (Counter): Page cache misses
//   - graph_cache_errors_total{operation} (Counter): Cache operation errors
//
// Batch Metrics (pkg/batch):
//   - runbook_batch_windows_total (Counter): Batch windows processed
//   - runbook_batch_items_total (Counter): Items processed across all windows
//   - runbook_batch_item_errors_total (Counter): Per-item failures converted to error counts
//   - runbook_batch_delay_seconds (Histogram): Inter-batch delay durations
//
// Dry-Run Metrics (pkg/dryrun):
//   - runbook_dryrun_suppressed_total (Counter): Mutations suppressed by dry-run mode
//
// Run Metrics (pkg/runbook):
//   - runbook_runs_total{runbook, result} (Counter): Runs by name and result
//     (completed, aborted, auth_failed, fetch_failed)
//   - runbook_run_duration_seconds{runbook} (Histogram): Run duration by name
//
// Example Prometheus Queries:
//
//   # Throttling pressure
//   rate(graph_throttle_429s_total[15m])
//
//   # Retry exhaustion rate
//   rate(graph_retry_exhausted_total[1h])
//
//   # Item error ratio per run window
//   rate(runbook_batch_item_errors_total[1h]) / rate(runbook_batch_items_total[1h])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(graph_request_duration_seconds_bucket[5m]))
//
//   # Cache hit rate
//   sum(rate(graph_cache_hits_total[5m])) /
//   (sum(rate(graph_cache_hits_total[5m])) + sum(rate(graph_cache_misses_total[5m])))
