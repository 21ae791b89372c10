package graph

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", config.MaxRetries)
	}
	if config.InitialBackoff != 5*time.Second {
		t.Errorf("InitialBackoff = %v, want 5s", config.InitialBackoff)
	}
	if config.MaxBackoff != 5*time.Minute {
		t.Errorf("MaxBackoff = %v, want 5m", config.MaxBackoff)
	}
}

func TestRetryState_BackoffDoubles(t *testing.T) {
	state := newRetryState(RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     5 * time.Minute,
	})

	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 80 * time.Second}
	for i, expected := range want {
		got := state.nextWait(nil)
		if got != expected {
			t.Errorf("wait %d = %v, want %v", i+1, got, expected)
		}
	}
	if state.attempt != 5 {
		t.Errorf("attempt = %d, want 5", state.attempt)
	}
	if !state.exhausted() {
		t.Error("state should be exhausted after 5 retries")
	}
}

func TestRetryState_RetryAfterOverridesBackoff(t *testing.T) {
	state := newRetryState(RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     5 * time.Minute,
	})

	header := http.Header{}
	header.Set("Retry-After", "17")

	if got := state.nextWait(header); got != 17*time.Second {
		t.Errorf("wait = %v, want 17s", got)
	}

	// The backoff still doubled underneath; the next hint-less wait is 10s.
	if got := state.nextWait(nil); got != 10*time.Second {
		t.Errorf("wait = %v, want 10s", got)
	}
}

func TestRetryState_BackoffCapped(t *testing.T) {
	state := newRetryState(RetryConfig{
		MaxRetries:     10,
		InitialBackoff: 4 * time.Minute,
		MaxBackoff:     5 * time.Minute,
	})

	state.nextWait(nil) // 4m, doubles to 8m then capped at 5m
	if got := state.nextWait(nil); got != 5*time.Minute {
		t.Errorf("wait = %v, want 5m", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "seconds", value: "30", want: 30 * time.Second},
		{name: "zero", value: "0", want: 0},
		{name: "missing", value: "", want: 0},
		{name: "negative", value: "-5", want: 0},
		{name: "not a number", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.value != "" {
				header.Set("Retry-After", tt.value)
			}
			if got := parseRetryAfter(header); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if got := parseRetryAfter(nil); got != 0 {
		t.Errorf("parseRetryAfter(nil) = %v, want 0", got)
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCtx(ctx, time.Hour)
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("err = %v, want ErrContextCancelled", err)
	}
}

func TestSleepCtx_Elapses(t *testing.T) {
	start := time.Now()
	if err := sleepCtx(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("returned after %v, want >= 10ms", elapsed)
	}
}
