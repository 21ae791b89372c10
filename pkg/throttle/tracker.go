package throttle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for shared throttle tracking.
var (
	graphThrottleHoldSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graph_throttle_hold_seconds",
		Help: "Seconds remaining on the current tenant-wide throttle hold",
	})

	graphThrottleBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_throttle_blocks_total",
		Help: "Total number of requests held back by shared throttle state",
	})

	graphThrottle429sTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_throttle_429s_total",
		Help: "Total number of 429 responses recorded in shared state",
	})
)

// Tracker stores and gates on tenant-wide throttle state in Redis.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new throttle tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current throttle state from Redis.
// Returns an inactive state if no data exists.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	holdUnix, err := t.redis.Get(ctx, RedisKeyHoldUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get hold until: %w", err)
	}
	if err == redis.Nil {
		t.logger.Debug().Msg("No throttle state in Redis, no hold active")
		return &State{LastUpdate: time.Now()}, nil
	}

	observed, err := t.redis.Get(ctx, RedisKeyObserved).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get observed 429s: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return &State{
		HoldUntil:    time.Unix(holdUnix, 0),
		Observed429s: observed,
		LastUpdate:   lastUpdate,
	}, nil
}

// UpdateFromResponse records throttling observations from a completed
// request. Only 429 responses change the shared state; the hold comes from
// the Retry-After header, or DefaultHold when the header is absent.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, header http.Header) error {
	if statusCode != http.StatusTooManyRequests {
		return nil
	}

	hold := DefaultHold
	if raw := header.Get("Retry-After"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse Retry-After header: %w", err)
		}
		hold = time.Duration(seconds) * time.Second
	}

	now := time.Now()
	holdUntil := now.Add(hold)

	lastUpdateJSON, err := json.Marshal(now)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyHoldUntil, holdUntil.Unix(), 0)
	pipe.Incr(ctx, RedisKeyObserved)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}

	graphThrottle429sTotal.Inc()
	graphThrottleHoldSeconds.Set(hold.Seconds())

	t.logger.Warn().
		Dur("hold", hold).
		Time("hold_until", holdUntil).
		Msg("Graph throttling observed - shared hold set")

	return nil
}

// ShouldAllowRequest checks whether a request may be issued now.
// Returns false plus the remaining hold duration while a tenant-wide hold
// is active.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, time.Duration, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("get throttle state: %w", err)
	}

	if state.IsActive() {
		remaining := state.Remaining()
		graphThrottleBlocksTotal.Inc()
		graphThrottleHoldSeconds.Set(remaining.Seconds())

		t.logger.Warn().
			Dur("remaining", remaining).
			Int64("observed_429s", state.Observed429s).
			Msg("Tenant-wide throttle hold active - request held back")

		return false, remaining, nil
	}

	graphThrottleHoldSeconds.Set(0)
	return true, 0, nil
}

// Reset clears the shared throttle state.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.redis.Del(ctx, RedisKeyHoldUntil, RedisKeyObserved, RedisKeyLastUpdate).Err(); err != nil {
		return fmt.Errorf("reset throttle state: %w", err)
	}
	return nil
}
