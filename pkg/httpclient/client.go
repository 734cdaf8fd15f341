// Package httpclient wraps net/http with redirect limits, an optional cookie
// jar and retries for transient server failures.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"time"
)

// DefaultRetryStatuses are the response codes retried when Retries > 0.
var DefaultRetryStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// ErrNilContext is returned by Do when called without a context.
var ErrNilContext = errors.New("httpclient: context cannot be nil")

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps followed redirects. Zero means 10, negative means
	// redirects are returned to the caller unfollowed.
	MaxRedirects int
	UseCookieJar bool
	// Retries is how many extra attempts are made after a transport error or
	// a response in RetryStatuses.
	Retries int
	// RetryBackoff is the delay before the first retry; it doubles on each
	// further attempt. Zero means 300ms.
	RetryBackoff  time.Duration
	RetryStatuses []int
	// Provide a custom Transport, e.g. for proxies or uTLS fingerprinting
	Transport http.RoundTripper
}

// Client wraps a standard http.Client to provide configurable timeouts,
// redirect policies, cookie management and retries.
type Client struct {
	*http.Client
	retries       int
	backoff       time.Duration
	retryStatuses []int
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 300 * time.Millisecond
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = DefaultRetryStatuses
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects > 0 {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("httpclient: stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{
		Client:        c,
		retries:       max(cfg.Retries, 0),
		backoff:       cfg.RetryBackoff,
		retryStatuses: slices.Clone(cfg.RetryStatuses),
	}, nil
}

// Do executes an HTTP request, retrying transient failures. The provided
// context controls the overall deadline across attempts independent of the
// per-attempt client timeout. Requests with a body are only retried when
// GetBody is set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	delay := c.backoff
	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil && attempt > 0 {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("httpclient: rewind body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := c.Client.Do(attemptReq)
		last := attempt >= c.retries || (req.Body != nil && req.GetBody == nil)

		switch {
		case err != nil && (last || ctx.Err() != nil):
			return nil, fmt.Errorf("httpclient: %w", err)
		case err == nil && (last || !slices.Contains(c.retryStatuses, resp.StatusCode)):
			return resp, nil
		case err == nil:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("httpclient: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}
