// Package testutil provides testing utilities for the runbook engine.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock Graph endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGraph is a configurable mock Graph API server for testing.
type MockGraph struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	MutationCount     int
	LastRequestHeader http.Header
}

// NewMockGraph creates a new mock Graph server.
func NewMockGraph() *MockGraph {
	mock := &MockGraph{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			mock.MutationCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGraph) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGraph) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGraph) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.MutationCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGraph) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockGraph) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection configures a paginated collection at path, serving records
// in pages of pageSize linked by @odata.nextLink cursors
// (path?$skip=<offset>).
func (m *MockGraph) SetCollection(path string, records []json.RawMessage, pageSize int) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		skip := 0
		fmt.Sscanf(r.URL.Query().Get("$skip"), "%d", &skip)

		end := skip + pageSize
		if end > len(records) {
			end = len(records)
		}
		var page []json.RawMessage
		if skip < len(records) {
			page = records[skip:end]
		}

		body := map[string]any{"value": page}
		if end < len(records) {
			body["@odata.nextLink"] = fmt.Sprintf("%s%s?$skip=%d", m.URL(), path, end)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body)
	})
}

// SetThrottleThenSuccess fails the first failCount requests to path with
// 429 (carrying retryAfter when non-empty), then serves successBody.
func (m *MockGraph) SetThrottleThenSuccess(path string, failCount int, retryAfter string, successBody string) {
	var mu sync.Mutex
	calls := 0

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n <= failCount {
			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": "TooManyRequests"}}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(successBody))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGraph) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetMutationCount returns the number of non-GET requests received.
func (m *MockGraph) GetMutationCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.MutationCount
}

// defaultHandler provides a default Graph-like 200 response.
func (m *MockGraph) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"value": []}`))
}

// NewThrottleResponse creates a 429 Too Many Requests response.
func NewThrottleResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": {"code": "TooManyRequests"}}`,
		Headers: map[string]string{
			"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
		},
	}
}

// NewServerErrorResponse creates a 503 Service Unavailable response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error": {"code": "ServiceUnavailable"}}`,
	}
}
