// Package transport defines the synchronous request/response contract the API client depends on.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Transport issues single-attempt HTTP requests. Non-2xx statuses are returned
// as responses; only network-level failures produce an error (*Error).
type Transport interface {
	Get(ctx context.Context, rawURL string, query url.Values) (*Response, error)
	Patch(ctx context.Context, rawURL string, query url.Values, body any) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is HTTP 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Error is a network-level failure (DNS, refused connection, timeout, unreadable body).
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
