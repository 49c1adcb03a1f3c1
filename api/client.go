// Package api implements the credentialed HTTP client of the repository API.
//
// Every request gets the API key pair merged into its query parameters.
// GET responses with HTTP 200 can be served from and stored into the
// response cache; PATCH requests never touch it. Non-2xx responses are
// returned to the caller, and network failures surface as *transport.Error.
// Nothing is retried.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/st-keller/omekas-client/cache"
	"github.com/st-keller/omekas-client/metric"
	"github.com/st-keller/omekas-client/request"
	"github.com/st-keller/omekas-client/standard"
	"github.com/st-keller/omekas-client/transport"
)

// Query parameter names of the API key pair.
const (
	ParamKeyIdentity   = "key_identity"
	ParamKeyCredential = "key_credential"
)

// Credentials is the API key pair.
type Credentials struct {
	Identity   string
	Credential string
}

// Empty reports whether no key is configured.
func (c Credentials) Empty() bool {
	return c.Identity == "" && c.Credential == ""
}

// Client is the credentialed API client. It exclusively owns its cache.
type Client struct {
	endpoint        string
	credentials     Credentials
	authenticateAll bool

	cache        *cache.Cache
	transport    transport.Transport
	logger       *slog.Logger
	metrics      *metric.Metrics
	connectivity *standard.ConnectivityTracker
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default net/http transport.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAuthenticateAll controls whether GET requests carry the key pair
// (default true). PATCH requests always do.
func WithAuthenticateAll(enabled bool) Option {
	return func(c *Client) { c.authenticateAll = enabled }
}

// New creates a client for the API endpoint (e.g. "https://example.org/api").
func New(endpoint string, credentials Credentials, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint required")
	}

	c := &Client{
		endpoint:        strings.TrimRight(endpoint, "/"),
		credentials:     credentials,
		authenticateAll: true,
		cache:           cache.New(),
		connectivity:    standard.NewConnectivityTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.transport == nil {
		t, err := transport.NewHTTP(transport.Options{})
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	return c, nil
}

// Endpoint returns the API endpoint without trailing slash.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Cache returns the response cache.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Connectivity returns the per-route call tracker.
func (c *Client) Connectivity() *standard.ConnectivityTracker {
	return c.connectivity
}

// Get issues a GET for path. With useCache, an identical earlier request
// answered with HTTP 200 is served from the cache without a network call.
// The caller's params are not modified.
func (c *Client) Get(ctx context.Context, path string, params request.Params, useCache bool) (*transport.Response, error) {
	path = strings.TrimLeft(path, "/")
	merged := params.Clone()
	if c.authenticateAll {
		c.mergeCredentials(merged)
	}
	d := request.Descriptor{Path: path, Params: merged}

	if useCache {
		if resp, ok := c.cache.Check(cache.VerbGet, d); ok {
			c.metrics.CacheHit(string(cache.VerbGet))
			c.logger.Debug("Cache hit", slog.String("path", path))
			return resp, nil
		}
		c.metrics.CacheMiss(string(cache.VerbGet))
	}

	resp, err := c.do(ctx, cache.VerbGet, path, func(ctx context.Context, url string) (*transport.Response, error) {
		return c.transport.Get(ctx, url, merged.Values())
	})
	if err != nil {
		return nil, err
	}

	if useCache && resp.OK() && c.cache.Store(cache.VerbGet, d, resp) {
		c.metrics.CacheStore(string(cache.VerbGet))
	}

	return resp, nil
}

// Patch issues a PATCH for path with a JSON body. The key pair is always
// merged and the cache is never consulted or updated.
func (c *Client) Patch(ctx context.Context, path string, body any, params request.Params) (*transport.Response, error) {
	path = strings.TrimLeft(path, "/")
	merged := params.Clone()
	c.mergeCredentials(merged)

	return c.do(ctx, cache.VerbPatch, path, func(ctx context.Context, url string) (*transport.Response, error) {
		return c.transport.Patch(ctx, url, merged.Values(), body)
	})
}

func (c *Client) mergeCredentials(params request.Params) {
	if c.credentials.Empty() {
		return
	}
	params[ParamKeyIdentity] = c.credentials.Identity
	params[ParamKeyCredential] = c.credentials.Credential
}

func (c *Client) url(path string) string {
	return c.endpoint + "/" + path
}

func (c *Client) do(ctx context.Context, verb cache.Verb, path string, send func(context.Context, string) (*transport.Response, error)) (*transport.Response, error) {
	url := c.url(path)
	method := strings.ToUpper(string(verb))
	resource := resourceOf(path)
	routeURL := c.url(resource)

	startTime := time.Now()
	resp, err := send(ctx, url)
	latency := time.Since(startTime)

	if err != nil {
		c.connectivity.TrackFailure(method, resource, routeURL, latency, err.Error())
		c.metrics.ObserveTransportError(string(verb), latency)
		c.logger.Error("API request failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
			slog.Int64("latency_ms", latency.Milliseconds()))
		return nil, err
	}

	c.connectivity.TrackSuccess(method, resource, routeURL, resp.StatusCode, latency)
	c.metrics.ObserveRequest(string(verb), resp.StatusCode, latency)
	c.logger.Debug("API request",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int64("latency_ms", latency.Milliseconds()))

	return resp, nil
}

// resourceOf returns the collection segment of a path ("items/42" -> "items").
func resourceOf(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
