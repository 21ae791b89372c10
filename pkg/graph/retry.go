package graph

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	graphRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	graphRetryWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_retry_wait_seconds",
		Help:    "Wait duration before retries by error class",
		Buckets: []float64{1, 5, 10, 20, 40, 80, 160, 300},
	}, []string{"error_class"})

	graphRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt, so a
	// request is issued at most MaxRetries+1 times.
	MaxRetries int

	// InitialBackoff is the wait before the first retry when the server
	// supplies no Retry-After hint.
	InitialBackoff time.Duration

	// MaxBackoff caps the doubled backoff.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration: waits of
// 5s, 10s, 20s, 40s, 80s across five retries unless Retry-After overrides.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}
}

// retryState tracks one in-flight request's retry progress. It is owned by
// a single Do invocation and discarded on completion.
type retryState struct {
	attempt int
	backoff time.Duration
	config  RetryConfig
}

func newRetryState(cfg RetryConfig) *retryState {
	return &retryState{backoff: cfg.InitialBackoff, config: cfg}
}

// exhausted reports whether the retry budget is spent.
func (s *retryState) exhausted() bool {
	return s.attempt >= s.config.MaxRetries
}

// nextWait consumes one retry: it returns the wait before the next attempt,
// honoring a server-supplied Retry-After header over the current backoff,
// then doubles the backoff and advances the attempt counter.
func (s *retryState) nextWait(header http.Header) time.Duration {
	wait := s.backoff
	if ra := parseRetryAfter(header); ra > 0 {
		wait = ra
	}

	s.backoff *= 2
	if s.backoff > s.config.MaxBackoff {
		s.backoff = s.config.MaxBackoff
	}
	s.attempt++

	return wait
}

// parseRetryAfter reads the Retry-After header as delay seconds.
// Returns 0 when absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-time.After(d):
		return nil
	}
}
