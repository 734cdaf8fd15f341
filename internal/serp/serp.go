// Package serp turns a search phrase into an ordered list of result links.
//
// Providers either scrape a public results page through a scraper.Fetcher or,
// for tests and offline runs, answer from a fixed fixture.
package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/FranksOps/agentrank/internal/scraper"
)

// Provider names accepted by New.
const (
	ProviderGoogle     = "google"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderStatic     = "static"
)

var (
	// ErrBlocked is wrapped by SearchError when the engine served a captcha
	// or bot challenge instead of results.
	ErrBlocked = errors.New("serp: blocked by bot challenge")
	// ErrUnknownProvider is returned by New for unsupported provider names.
	ErrUnknownProvider = errors.New("serp: unknown provider")
)

// Result is one organic result link. Position is 1-based and counts every
// result the provider returned for the query, in page order.
type Result struct {
	Position int    `json:"position" yaml:"position"`
	Title    string `json:"title" yaml:"title"`
	URL      string `json:"url" yaml:"url"`
}

// Provider abstracts a search engine. Search returns at most limit results;
// a limit of zero or less returns an empty slice without issuing a request.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// PageFetcher is the part of scraper.Fetcher providers depend on.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*scraper.Page, error)
}

var _ PageFetcher = (*scraper.Fetcher)(nil)

// SearchError describes a failed query: network failure, non-200 status,
// bot challenge or unparseable page.
type SearchError struct {
	Provider   string
	Query      string
	StatusCode int
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s search %q: status %d: %v", e.Provider, e.Query, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s search %q: %v", e.Provider, e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Names lists the provider names New accepts.
func Names() []string {
	return []string{ProviderGoogle, ProviderDuckDuckGo}
}

// New builds a scraping provider by name. The empty name selects Google.
func New(name string, fetcher PageFetcher, logger *slog.Logger) (Provider, error) {
	if fetcher == nil {
		return nil, errors.New("serp: fetcher cannot be nil")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderGoogle:
		return NewGoogleScrape(fetcher, logger), nil
	case ProviderDuckDuckGo, "ddg":
		return NewDuckDuckGo(fetcher, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// fetchPage fetches a results page and converts every failure mode into a
// SearchError. Context cancellation is returned unwrapped.
func fetchPage(ctx context.Context, fetcher PageFetcher, provider, query, target string) (*scraper.Page, error) {
	page, err := fetcher.Fetch(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SearchError{Provider: provider, Query: query, Err: err}
	}
	if page.Error != "" {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SearchError{Provider: provider, Query: query, Err: errors.New(page.Error)}
	}
	if page.DetectedBot {
		return nil, &SearchError{
			Provider:   provider,
			Query:      query,
			StatusCode: page.StatusCode,
			Err:        fmt.Errorf("%w (%s)", ErrBlocked, page.DetectionSrc),
		}
	}
	if page.StatusCode != 200 {
		return nil, &SearchError{
			Provider:   provider,
			Query:      query,
			StatusCode: page.StatusCode,
			Err:        errors.New("unexpected status"),
		}
	}
	return page, nil
}

// resultSet collects results in order, dropping repeated URLs and assigning
// cumulative positions.
type resultSet struct {
	limit   int
	seen    map[string]struct{}
	results []Result
}

func newResultSet(limit int) *resultSet {
	return &resultSet{limit: limit, seen: make(map[string]struct{})}
}

func (s *resultSet) full() bool {
	return len(s.results) >= s.limit
}

// add reports whether the link was new.
func (s *resultSet) add(title, link string) bool {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" || link == "" || s.full() {
		return false
	}
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	s.results = append(s.results, Result{
		Position: len(s.results) + 1,
		Title:    title,
		URL:      link,
	})
	return true
}

// isWebURL reports whether raw is an absolute http(s) URL.
func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
