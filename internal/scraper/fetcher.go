// Package scraper fetches pages through a fingerprinted transport with
// User-Agent and proxy rotation, rate limiting and retries.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/agentrank/internal/bypass"
	"github.com/FranksOps/agentrank/internal/fingerprint"
	"github.com/FranksOps/agentrank/internal/metrics"
	"github.com/FranksOps/agentrank/pkg/httpclient"
	"github.com/FranksOps/agentrank/pkg/proxy"
	"github.com/FranksOps/agentrank/pkg/ratelimit"
	"github.com/FranksOps/agentrank/pkg/useragent"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// DefaultMaxBody caps how much of a response body is kept.
const DefaultMaxBody = 5 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// Retries is the number of extra attempts on transport errors and 5xx.
	Retries      int
	RetryBackoff time.Duration
	MaxBody      int64
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
	Detectors    []bypass.Detector
	Logger       *slog.Logger
}

// Fetcher performs single URL fetches. It is safe for concurrent use.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher initializes a Fetcher. One client is held for the lifetime of
// the Fetcher so that connections and cookies are reused across requests.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The proxy is chosen per request and carried on the request context.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Retries:      cfg.Retries,
		RetryBackoff: cfg.RetryBackoff,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}, nil
}

// UserAgent returns the next User-Agent the Fetcher would send. Used when
// consulting robots.txt groups.
func (f *Fetcher) UserAgent() string {
	return f.config.UAPool.Get()
}

// Fetch executes a GET request to targetURL. Only context cancellation while
// waiting on the rate limiter is returned as an error; everything else is
// recorded on the Page.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	page := &Page{
		ID:        uuid.NewString(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}
	domain := hostOf(targetURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		page.Error = fmt.Sprintf("create request: %v", err)
		return page, nil
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", f.config.UAPool.Get())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		page.Error = fmt.Sprintf("request failed: %v", err)
		page.Duration = time.Since(start)
		metrics.RecordFetch(domain, 0, "", 0)
		f.logger.Debug("fetch failed", "url", targetURL, "err", err)
		return page, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBody))
	if err != nil {
		page.Error = fmt.Sprintf("read body: %v", err)
	}

	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	page.Body = body
	page.FinalURL = resp.Request.URL.String()
	page.Duration = time.Since(start)
	page.DetectedBot, page.DetectionSrc = bypass.Analyze(bypass.Response{
		URL:        page.FinalURL,
		StatusCode: page.StatusCode,
		Header:     page.Headers,
		Body:       page.Body,
	}, f.config.Detectors)

	metrics.RecordFetch(domain, page.StatusCode, page.DetectionSrc, len(page.Body))
	f.logger.Debug("fetched page",
		"url", targetURL,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"duration", page.Duration,
		"detected", page.DetectionSrc,
	)
	return page, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
