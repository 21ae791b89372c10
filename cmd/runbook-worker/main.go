// Command runbook-worker runs the device category remediation runbook:
// it pages through Intune managed devices and patches any device whose
// category differs from the configured target, honoring dry-run mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sargeschultz11/Azure-Runbooks/pkg/batch"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/cache"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/dryrun"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/graph"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/logging"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/pagination"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/runbook"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/stats"
	"github.com/sargeschultz11/Azure-Runbooks/pkg/throttle"
)

// managedDevice is the slice of the Intune device record this runbook reads.
type managedDevice struct {
	ID              string `json:"id"`
	DeviceName      string `json:"deviceName"`
	OperatingSystem string `json:"operatingSystem"`
	Category        string `json:"deviceCategoryDisplayName"`
}

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	token := os.Getenv("GRAPH_TOKEN")
	if token == "" {
		logger.Fatal().Msg("GRAPH_TOKEN is required")
	}

	targetCategory := getEnv("TARGET_CATEGORY", "Corporate")
	dryRun := getEnv("DRY_RUN", "true") != "false"
	batchSize := getEnvInt("BATCH_SIZE", 50)
	delaySeconds := getEnvInt("BATCH_DELAY_SECONDS", 10)
	maxActions := getEnvInt("MAX_ACTIONS", 0)

	cfg := graph.DefaultConfig(graph.StaticToken(token))
	cfg.BaseURL = getEnv("GRAPH_BASE_URL", graph.DefaultBaseURL)

	// Redis is optional: with it, workers share throttle holds and page cache.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		cfg.Throttle = throttle.NewTracker(redisClient, logging.NewLogger("throttle"))
		cfg.Cache = cache.NewManager(redisClient, 5*time.Minute)
		logger.Info().Str("redis_url", redisURL).Msg("Shared throttle state and page cache enabled")
	}

	client, err := graph.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Graph client")
	}

	gate := dryrun.NewGate(dryRun, logging.NewLogger("device-category"))
	runner := runbook.NewRunner[managedDevice]("device-category", client, gate, batch.Config{
		BatchSize:       batchSize,
		InterBatchDelay: time.Duration(delaySeconds) * time.Second,
		MaxActions:      int64(maxActions),
	})

	summary, err := runner.Run(context.Background(),
		func(ctx context.Context, c *graph.Client) ([]managedDevice, error) {
			return pagination.FetchAllAs[managedDevice](ctx, c,
				graph.NewGet("/deviceManagement/managedDevices?$select=id,deviceName,operatingSystem,deviceCategoryDisplayName"))
		},
		func(ctx context.Context, d managedDevice, counters *stats.Counters) error {
			if d.Category == targetCategory {
				counters.Inc(stats.NoChange)
				counters.IncDim(d.OperatingSystem, stats.NoChange)
				return nil
			}

			change := dryrun.Change{
				Resource: d.ID,
				Field:    "deviceCategoryDisplayName",
				Before:   d.Category,
				After:    targetCategory,
			}
			err := gate.Apply(ctx, change, func(ctx context.Context) error {
				body, _ := json.Marshal(map[string]string{"deviceCategoryDisplayName": targetCategory})
				_, err := client.Patch(ctx, "/deviceManagement/managedDevices/"+d.ID, body)
				return err
			})
			if err != nil {
				return fmt.Errorf("patch device %s: %w", d.ID, err)
			}

			counters.Inc(stats.Updated)
			counters.IncDim(d.OperatingSystem, stats.Updated)
			return nil
		},
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Run failed")
	}

	// The automation platform consumes the summary from stdout.
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
