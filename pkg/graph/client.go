// Package graph provides the throttle-aware Graph API request engine the
// runbooks build on: typed request descriptors, 429/5xx retry with
// exponential backoff honoring Retry-After, and optional shared throttle
// state and page caching.
package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/cache"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/throttle"
)

// Prometheus metrics for Graph client operations.
var (
	graphRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_requests_total",
		Help: "Total Graph requests by method and status",
	}, []string{"method", "status"})

	graphRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_request_duration_seconds",
		Help:    "Graph request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})

	graphErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_errors_total",
		Help: "Total Graph errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the Graph API root requests with relative URLs resolve
// against.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// TokenProvider supplies a pre-acquired bearer token for the Graph API.
// Token acquisition (managed identity, client credentials) lives outside
// this package.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider wrapping an already-acquired token string.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return string(t), nil
}

// Config holds the client configuration.
type Config struct {
	// TokenProvider supplies the bearer credential (REQUIRED).
	TokenProvider TokenProvider

	// BaseURL is prepended to request URLs that start with "/".
	BaseURL string

	// Retry controls backoff behavior; per-request descriptor fields
	// override it call by call.
	Retry RetryConfig

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// Throttle, when set, shares Retry-After holds across workers.
	Throttle *throttle.Tracker

	// Cache, when set, serves repeated GET requests from Redis.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(tokens TokenProvider) Config {
	return Config{
		TokenProvider: tokens,
		BaseURL:       DefaultBaseURL,
		Retry:         DefaultRetryConfig(),
		Timeout:       30 * time.Second,
	}
}

// Client is the Graph API request engine.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

// New creates a new Graph client.
func New(cfg Config) (*Client, error) {
	if cfg.TokenProvider == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0 (got %d)", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}
	if cfg.Retry.MaxBackoff <= 0 {
		cfg.Retry.MaxBackoff = DefaultRetryConfig().MaxBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "graph-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
		sleep:  sleepCtx,
	}, nil
}

// bearer returns the run's bearer token, fetching it from the provider on
// first use. A provider failure is latched so the run fails fast.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.tokenOnce.Do(func() {
		c.token, c.tokenErr = c.config.TokenProvider.Token(ctx)
		if c.tokenErr != nil {
			c.logger.Error().Err(c.tokenErr).Msg("Token acquisition failed")
		}
	})
	return c.token, c.tokenErr
}

// Authenticate eagerly acquires the bearer token so callers can fail fast
// before any batch work begins.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.bearer(ctx)
	return err
}

// Do executes the request described by req: a single logical Graph call,
// retried on 429/5xx/network failures with exponential backoff, honoring a
// server-supplied Retry-After over the computed backoff.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	url := c.resolveURL(req.URL)

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}

	startTime := time.Now()
	defer func() {
		graphRequestDuration.WithLabelValues(req.Method).Observe(time.Since(startTime).Seconds())
	}()

	// Serve repeated reads from the page cache.
	cacheKey := cache.Key{URL: url}
	if c.cacheable(req) {
		entry, err := c.config.Cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("url", url).Msg("Cache get error")
		}
		if entry != nil {
			c.logger.Debug().Str("url", url).Msg("Serving response from page cache")
			graphRequestsTotal.WithLabelValues(req.Method, "cached").Inc()
			return &Response{StatusCode: entry.StatusCode, Header: http.Header{}, Body: entry.Body}, nil
		}
	}

	retryCfg := c.config.Retry
	if req.MaxRetries > 0 {
		retryCfg.MaxRetries = req.MaxRetries
	}
	if req.InitialBackoff > 0 {
		retryCfg.InitialBackoff = req.InitialBackoff
	}
	state := newRetryState(retryCfg)

	for {
		if err := c.holdForThrottle(ctx); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, req, url, token)
		if err != nil {
			// Transport-level failure, no response to classify.
			graphErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			graphRequestsTotal.WithLabelValues(req.Method, "network_error").Inc()

			if state.exhausted() {
				graphRetryExhaustedTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
				return nil, &GraphError{
					ErrorClass: ErrorClassNetwork,
					Message:    err.Error(),
					Err:        fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, state.attempt+1, err),
				}
			}
			if err := c.waitBeforeRetry(ctx, state, nil, req, 0); err != nil {
				return nil, err
			}
			continue
		}

		status := resp.StatusCode
		graphRequestsTotal.WithLabelValues(req.Method, fmt.Sprintf("%d", status)).Inc()

		if status >= 200 && status < 300 {
			if c.cacheable(req) && status == http.StatusOK {
				if err := c.config.Cache.Put(ctx, cacheKey, status, resp.Body); err != nil {
					c.logger.Warn().Err(err).Str("url", url).Msg("Failed to cache response")
				}
			}
			return resp, nil
		}

		class := classify(status, nil)
		graphErrorsTotal.WithLabelValues(string(class)).Inc()

		if class == ErrorClassThrottle && c.config.Throttle != nil {
			if err := c.config.Throttle.UpdateFromResponse(ctx, status, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to record throttle state")
			}
		}

		if !shouldRetry(class) {
			c.logger.Warn().
				Str("method", req.Method).
				Str("url", url).
				Int("status_code", status).
				Msg("Permanent Graph request error")
			return nil, &GraphError{
				StatusCode: status,
				ErrorClass: class,
				Message:    http.StatusText(status),
			}
		}

		if state.exhausted() {
			graphRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
			c.logger.Error().
				Str("method", req.Method).
				Str("url", url).
				Int("status_code", status).
				Int("attempts", state.attempt+1).
				Msg("Retry attempts exhausted")
			return nil, &GraphError{
				StatusCode: status,
				ErrorClass: class,
				Message:    http.StatusText(status),
				Err:        fmt.Errorf("%w after %d attempts", ErrRetryExhausted, state.attempt+1),
			}
		}

		if err := c.waitBeforeRetry(ctx, state, resp.Header, req, status); err != nil {
			return nil, err
		}
	}
}

// attempt issues one HTTP call and reads the full body.
func (c *Client) attempt(ctx context.Context, req Request, url, token string) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = contentTypeJSON
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.Method).Str("url", url).Msg("HTTP request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// waitBeforeRetry consumes one retry from state and sleeps for the computed
// wait, logging the retry event.
func (c *Client) waitBeforeRetry(ctx context.Context, state *retryState, header http.Header, req Request, status int) error {
	class := classify(status, nil)
	if status == 0 {
		class = ErrorClassNetwork
	}

	wait := state.nextWait(header)
	graphRetriesTotal.WithLabelValues(string(class)).Inc()
	graphRetryWaitSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

	c.logger.Warn().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status_code", status).
		Int("attempt", state.attempt).
		Dur("wait", wait).
		Msg("Transient Graph error - retrying after backoff")

	return c.sleep(ctx, wait)
}

// holdForThrottle waits out any tenant-wide hold before issuing a request.
// Tracker errors fail open so a Redis outage cannot stall the run.
func (c *Client) holdForThrottle(ctx context.Context) error {
	if c.config.Throttle == nil {
		return nil
	}

	allowed, remaining, err := c.config.Throttle.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Throttle state check failed - proceeding")
		return nil
	}
	if !allowed {
		return c.sleep(ctx, remaining)
	}
	return nil
}

// cacheable reports whether req may be served from / stored to the cache.
func (c *Client) cacheable(req Request) bool {
	return c.config.Cache != nil && req.Method == http.MethodGet
}

// resolveURL resolves relative request paths against the base URL.
func (c *Client) resolveURL(url string) string {
	if strings.HasPrefix(url, "/") {
		return c.config.BaseURL + url
	}
	return url
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, NewGet(url))
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.Do(ctx, NewPatch(url, body))
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.Do(ctx, NewPost(url, body))
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
