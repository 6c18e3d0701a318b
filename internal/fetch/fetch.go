// Package fetch is the network collaborator in front of the extraction
// core: it issues the HTTP GET, decodes the response body into a document
// and hands it to the extractor. Transport, status and decode failures
// propagate to the caller; the core itself never performs I/O.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alpeshvas/siphon/internal/document"
	"github.com/alpeshvas/siphon/internal/extract"
	"github.com/alpeshvas/siphon/internal/spec"
)

// DefaultTimeout bounds a whole request/response cycle.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	TLSConfig *tls.Config
	Timeout   time.Duration // zero means DefaultTimeout
	RateLimit float64       // requests per second, 0 or negative for unlimited
	Debug     io.Writer     // request/response dumps, nil disables
}

// Client fetches JSON documents over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      io.Writer
}

// NewClient builds a client with a tuned transport.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSClientConfig:        opts.TLSConfig,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		IdleConnTimeout:        60 * time.Second,
		MaxIdleConns:           100,
		MaxIdleConnsPerHost:    10,
		MaxConnsPerHost:        50,
		MaxResponseHeaderBytes: 1 << 20, // 1 MiB
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: newRateLimiter(opts.RateLimit),
		debug:   opts.Debug,
	}
}

func newRateLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// Fetch issues a GET against url and decodes the JSON response body.
// Responses outside the 2xx range are an error.
func (c *Client) Fetch(ctx context.Context, url string) (document.Value, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return document.Missing(), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return document.Missing(), fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	c.debugDump("REQUEST", func() ([]byte, error) { return httputil.DumpRequestOut(req, false) })

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return document.Missing(), err
	}
	defer resp.Body.Close()

	c.debugDump("RESPONSE", func() ([]byte, error) { return httputil.DumpResponse(resp, false) })

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return document.Missing(), fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := document.Decode(resp.Body)
	if err != nil {
		return document.Missing(), fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return doc, nil
}

func (c *Client) debugDump(label string, dump func() ([]byte, error)) {
	if c.debug == nil {
		return
	}
	payload, err := dump()
	if err != nil {
		fmt.Fprintf(c.debug, "--- %s dump error: %v\n", label, err)
		return
	}
	fmt.Fprintf(c.debug, "--- %s ---\n%s\n", label, payload)
}

// FetchAndProcess fetches the document named by the spec's request block
// (relative to baseURL) and runs every extraction against it.
func FetchAndProcess(ctx context.Context, c *Client, es *spec.ExtractSpec, baseURL string) (document.Value, error) {
	url := baseURL
	if es != nil && es.Request != nil {
		url = baseURL + es.Request.Path
	}

	doc, err := c.Fetch(ctx, url)
	if err != nil {
		return document.Missing(), err
	}

	return extract.ProcessDocument(es, doc)
}

// FetchAndProcessField fetches baseURL and evaluates a single raw directive
// against the response document.
func FetchAndProcessField(ctx context.Context, c *Client, raw any, baseURL string) (document.Value, error) {
	doc, err := c.Fetch(ctx, baseURL)
	if err != nil {
		return document.Missing(), err
	}
	return extract.Process(raw, doc)
}
