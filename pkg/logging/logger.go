// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// DryRun returns an info-level event stamped with the dry_run marker field.
// zerolog has no custom named levels, so dry-run effect logs are
// distinguished by this field instead; log pipelines filter on dry_run=true.
func DryRun(logger zerolog.Logger) *zerolog.Event {
	return logger.Info().Bool("dry_run", true)
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, TTL)
//   - Per-request flow (method, URL, attempt)
//   - Throttle state reads
//
// Info: Normal operation events
//   - Run start/finish with summary counters
//   - Batch window boundaries and progress
//   - Dry-run effect logs (with dry_run=true marker)
//
// Warn: Warning conditions that don't prevent operation
//   - Throttled requests (429) and retry attempts with wait duration
//   - Cache errors (fallback to direct request)
//   - Per-item processing failures converted to error counts
//
// Error: Error conditions requiring attention
//   - Requests that exhausted their retry budget
//   - Collection fetch aborts
//   - Token acquisition failures
//
// Context Fields:
//   - runbook: runbook name
//   - method, url: request identity
//   - status_code: HTTP status code
//   - attempt: retry attempt number
//   - wait: backoff or Retry-After wait duration
//   - batch, batches: window index and total window count
//   - dry_run: dry-run marker on suppressed mutations
