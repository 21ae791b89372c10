package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Request describes one logical Graph API call. It is immutable once
// constructed; the engine retries the same descriptor unchanged.
type Request struct {
	// Method is the HTTP verb (GET, POST, PATCH, PUT, DELETE).
	Method string

	// URL is the absolute request URL, or a path resolved against the
	// client's base URL when it starts with "/".
	URL string

	// Body is the raw request body (nil for bodyless requests).
	Body []byte

	// ContentType is the body content type (default: application/json
	// when a body is present).
	ContentType string

	// MaxRetries overrides the client's retry budget for this call when > 0.
	MaxRetries int

	// InitialBackoff overrides the client's initial backoff for this call
	// when > 0.
	InitialBackoff time.Duration
}

// IsMutation reports whether the request would change upstream state.
func (r Request) IsMutation() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return false
	default:
		return true
	}
}

// NewGet builds a GET request descriptor.
func NewGet(url string) Request {
	return Request{Method: http.MethodGet, URL: url}
}

// NewPost builds a POST request descriptor with a JSON body.
func NewPost(url string, body []byte) Request {
	return Request{Method: http.MethodPost, URL: url, Body: body, ContentType: contentTypeJSON}
}

// NewPatch builds a PATCH request descriptor with a JSON body.
func NewPatch(url string, body []byte) Request {
	return Request{Method: http.MethodPatch, URL: url, Body: body, ContentType: contentTypeJSON}
}

// NewPut builds a PUT request descriptor. ContentType defaults to JSON and
// can be overridden for raw binary uploads.
func NewPut(url string, body []byte, contentType string) Request {
	if contentType == "" {
		contentType = contentTypeJSON
	}
	return Request{Method: http.MethodPut, URL: url, Body: body, ContentType: contentType}
}

// NewDelete builds a DELETE request descriptor.
func NewDelete(url string) Request {
	return Request{Method: http.MethodDelete, URL: url}
}

const contentTypeJSON = "application/json"

// Response is a completed Graph API response.
type Response struct {
	StatusCode int
	Header     http.Header

	// Body is the raw response body. JSON responses are decoded on demand
	// via Collection or Entity; binary downloads read Body directly.
	Body []byte
}

// CollectionPage is one page of a paginated Graph collection.
type CollectionPage struct {
	// Value holds the page's records, left raw for the caller to decode
	// into its entity type.
	Value []json.RawMessage `json:"value"`

	// NextLink is the opaque cursor URL of the following page; empty on
	// the terminal page.
	NextLink string `json:"@odata.nextLink"`
}

// Collection decodes the response body as a paginated collection page.
func (r *Response) Collection() (*CollectionPage, error) {
	var page CollectionPage
	if err := json.Unmarshal(r.Body, &page); err != nil {
		return nil, fmt.Errorf("decode collection page: %w", err)
	}
	return &page, nil
}

// Entity decodes the response body as a single JSON entity into v.
func (r *Response) Entity(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}
	return nil
}
