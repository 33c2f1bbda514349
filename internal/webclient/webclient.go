// Package webclient fetches page renderings. The comparison core never
// fetches anything itself; it consumes the Response bodies produced here.
package webclient

import (
	"context"
	"net/http"
	"time"
)

// WebClient executes requests against one of the registered backends.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}

// Request describes one page fetch.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	// Options contains backend-specific options like "render": "true" for chromedp
	Options map[string]string
}

// Response is the provenance-agnostic fetch result: the comparison core
// must not care whether it came from a direct GET or a rendered page.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// Backend names a WebClient implementation.
type Backend string

const (
	BackendNetHTTP  Backend = "nethttp"
	BackendChromedp Backend = "chromedp"
)

// Config is the minimal configuration required for constructing a WebClient.
type Config struct {
	Backend Backend

	// Timeout bounds a single fetch. Zero means the 30s default.
	Timeout time.Duration
}
