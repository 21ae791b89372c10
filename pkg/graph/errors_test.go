package graph

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		want       ErrorClass
	}{
		{name: "throttle", statusCode: 429, want: ErrorClassThrottle},
		{name: "client error", statusCode: 404, want: ErrorClassClient},
		{name: "unauthorized", statusCode: 401, want: ErrorClassClient},
		{name: "server error", statusCode: 500, want: ErrorClassServer},
		{name: "bad gateway", statusCode: 502, want: ErrorClassServer},
		{name: "network error", err: errors.New("connection refused"), want: ErrorClassNetwork},
		{name: "success not classified", statusCode: 200, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.statusCode, tt.err); got != tt.want {
				t.Errorf("classify(%d, %v) = %q, want %q", tt.statusCode, tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassThrottle, true},
		{ErrorClassServer, true},
		{ErrorClassNetwork, true},
		{ErrorClass(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestGraphError_Error(t *testing.T) {
	err := &GraphError{
		StatusCode: 429,
		ErrorClass: ErrorClassThrottle,
		Message:    "Too Many Requests",
	}

	msg := err.Error()
	if !strings.Contains(msg, "429") || !strings.Contains(msg, "throttle") {
		t.Errorf("Error() = %q, want status and class included", msg)
	}
}

func TestGraphError_Unwrap(t *testing.T) {
	err := &GraphError{
		StatusCode: 503,
		ErrorClass: ErrorClassServer,
		Message:    "Service Unavailable",
		Err:        ErrRetryExhausted,
	}

	if !errors.Is(err, ErrRetryExhausted) {
		t.Error("errors.Is(err, ErrRetryExhausted) = false, want true")
	}

	var graphErr *GraphError
	if !errors.As(error(err), &graphErr) {
		t.Error("errors.As failed to extract GraphError")
	}
	if graphErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", graphErr.StatusCode)
	}
}
