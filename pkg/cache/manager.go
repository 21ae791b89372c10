package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Prometheus metrics for cache operations.
var (
	graphCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_cache_hits_total",
		Help: "Total Graph page cache hits",
	})

	graphCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_cache_misses_total",
		Help: "Total Graph page cache misses",
	})

	graphCacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_cache_errors_total",
		Help: "Total Graph page cache errors by operation",
	}, []string{"operation"})
)

// Manager handles Graph page caching with a Redis backend.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// DefaultTTL is the page freshness window when none is configured.
const DefaultTTL = 5 * time.Minute

// NewManager creates a cache manager. A non-positive ttl falls back to
// DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves a cached response by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			graphCacheMissesTotal.Inc()
			return nil, ErrCacheMiss
		}
		graphCacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		graphCacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		graphCacheMissesTotal.Inc()
		return nil, ErrCacheMiss
	}

	graphCacheHitsTotal.Inc()
	return &entry, nil
}

// Put stores a response body under key with the configured TTL.
// Redis evicts the entry when the TTL lapses.
func (m *Manager) Put(ctx context.Context, key Key, statusCode int, body []byte) error {
	now := time.Now()
	entry := Entry{
		Body:       body,
		StatusCode: statusCode,
		FetchedAt:  now,
		Expires:    now.Add(m.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		graphCacheErrorsTotal.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, m.ttl).Err(); err != nil {
		graphCacheErrorsTotal.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		graphCacheErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
