package graph

import (
	"net/http"
	"testing"
)

func TestRequestConstructors(t *testing.T) {
	tests := []struct {
		name        string
		req         Request
		wantMethod  string
		wantContent string
	}{
		{name: "get", req: NewGet("/a"), wantMethod: http.MethodGet},
		{name: "post", req: NewPost("/a", []byte(`{}`)), wantMethod: http.MethodPost, wantContent: "application/json"},
		{name: "patch", req: NewPatch("/a", []byte(`{}`)), wantMethod: http.MethodPatch, wantContent: "application/json"},
		{name: "put json default", req: NewPut("/a", []byte(`{}`), ""), wantMethod: http.MethodPut, wantContent: "application/json"},
		{name: "put binary", req: NewPut("/a", []byte{0x1}, "application/octet-stream"), wantMethod: http.MethodPut, wantContent: "application/octet-stream"},
		{name: "delete", req: NewDelete("/a"), wantMethod: http.MethodDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.req.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", tt.req.Method, tt.wantMethod)
			}
			if tt.req.ContentType != tt.wantContent {
				t.Errorf("ContentType = %q, want %q", tt.req.ContentType, tt.wantContent)
			}
		})
	}
}

func TestRequest_IsMutation(t *testing.T) {
	if NewGet("/a").IsMutation() {
		t.Error("GET should not be a mutation")
	}
	for _, req := range []Request{NewPost("/a", nil), NewPatch("/a", nil), NewPut("/a", nil, ""), NewDelete("/a")} {
		if !req.IsMutation() {
			t.Errorf("%s should be a mutation", req.Method)
		}
	}
}

func TestResponse_Collection(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Body:       []byte(`{"value": [{"id": "1"}, {"id": "2"}], "@odata.nextLink": "https://graph.example.com/next"}`),
	}

	page, err := resp.Collection()
	if err != nil {
		t.Fatalf("Collection() failed: %v", err)
	}
	if len(page.Value) != 2 {
		t.Errorf("len(Value) = %d, want 2", len(page.Value))
	}
	if page.NextLink != "https://graph.example.com/next" {
		t.Errorf("NextLink = %q", page.NextLink)
	}
}

func TestResponse_Collection_TerminalPage(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"value": []}`)}

	page, err := resp.Collection()
	if err != nil {
		t.Fatalf("Collection() failed: %v", err)
	}
	if page.NextLink != "" {
		t.Errorf("NextLink = %q, want empty", page.NextLink)
	}
}

func TestResponse_Collection_InvalidJSON(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`not json`)}

	if _, err := resp.Collection(); err == nil {
		t.Error("Expected decode error but got nil")
	}
}
