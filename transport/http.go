package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures BuildHTTPClient.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	HTTP2     bool // negotiate HTTP/2 over TLS on the plain transport

	// mTLS: all three paths must be set together.
	CertPath string
	KeyPath  string
	CAPath   string
}

func (o Options) mTLS() bool {
	return o.CertPath != "" || o.KeyPath != "" || o.CAPath != ""
}

// BuildHTTPClient creates the http.Client used by HTTP.
// With certificate paths set, requests go over HTTP/2 with mutual TLS.
func BuildHTTPClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if opts.mTLS() {
		tlsConfig, err := buildTLSConfig(opts.CertPath, opts.KeyPath, opts.CAPath)
		if err != nil {
			return nil, err
		}
		return &http.Client{
			Transport: &http2.Transport{TLSClientConfig: tlsConfig},
			Timeout:   timeout,
		}, nil
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.HTTP2 {
		if err := http2.ConfigureTransport(base); err != nil {
			return nil, fmt.Errorf("failed to enable HTTP/2: %w", err)
		}
	}

	return &http.Client{
		Transport: base,
		Timeout:   timeout,
	}, nil
}

func buildTLSConfig(certPath, keyPath, caPath string) (*tls.Config, error) {
	if certPath == "" {
		return nil, fmt.Errorf("certPath required")
	}
	if keyPath == "" {
		return nil, fmt.Errorf("keyPath required")
	}
	if caPath == "" {
		return nil, fmt.Errorf("caPath required")
	}

	clientCert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// HTTP implements Transport on top of net/http.
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP builds an HTTP transport from options.
func NewHTTP(opts Options) (*HTTP, error) {
	client, err := BuildHTTPClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}
	return &HTTP{client: client, userAgent: opts.UserAgent}, nil
}

// NewHTTPWithClient wraps an existing http.Client (tests, custom round trippers).
func NewHTTPWithClient(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client}
}

// Get issues a GET request.
func (h *HTTP) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return h.do(ctx, http.MethodGet, rawURL, query, nil)
}

// Patch issues a PATCH request with a JSON body.
func (h *HTTP) Patch(ctx context.Context, rawURL string, query url.Values, body any) (*Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return h.do(ctx, http.MethodPatch, rawURL, query, jsonData)
}

func (h *HTTP) do(ctx context.Context, method, rawURL string, query url.Values, body []byte) (*Response, error) {
	target := rawURL
	if len(query) > 0 {
		target = rawURL + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{Method: method, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: method, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
