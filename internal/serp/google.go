package serp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultGoogleURL is the search endpoint GoogleScrape queries.
const DefaultGoogleURL = "https://www.google.com/search"

// maxGooglePage is the largest num value Google honours.
const maxGooglePage = 100

const googleAdSelector = "#tads, #tadsb, #bottomads, .uEierd, .commercial-unit-desktop-top"

// GoogleScrape scrapes Google's HTML results pages, following pagination
// until limit results are collected or a page yields nothing new.
type GoogleScrape struct {
	BaseURL string
	fetcher PageFetcher
	logger  *slog.Logger
}

var _ Provider = (*GoogleScrape)(nil)

// NewGoogleScrape creates a Google provider fetching through fetcher.
func NewGoogleScrape(fetcher PageFetcher, logger *slog.Logger) *GoogleScrape {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleScrape{
		BaseURL: DefaultGoogleURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (g *GoogleScrape) Name() string {
	return ProviderGoogle
}

// Search returns up to limit organic results for query.
func (g *GoogleScrape) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return []Result{}, nil
	}

	set := newResultSet(limit)
	for start := 0; !set.full(); {
		page, err := fetchPage(ctx, g.fetcher, g.Name(), query, g.pageURL(query, start, limit-len(set.results)))
		if err != nil {
			return nil, err
		}

		links, err := parseGoogle(page.Body)
		if err != nil {
			return nil, &SearchError{Provider: g.Name(), Query: query, StatusCode: page.StatusCode, Err: err}
		}

		added := 0
		for _, l := range links {
			if set.add(l.title, l.url) {
				added++
			}
		}
		g.logger.Debug("parsed google results page", "query", query, "start", start, "links", len(links), "new", added)
		if added == 0 {
			break
		}
		start += len(links)
	}

	return set.results, nil
}

func (g *GoogleScrape) pageURL(query string, start, want int) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("num", strconv.Itoa(min(want, maxGooglePage)))
	if start > 0 {
		v.Set("start", strconv.Itoa(start))
	}
	v.Set("hl", "en")
	v.Set("gl", "us")
	return g.BaseURL + "?" + v.Encode()
}

type link struct {
	title string
	url   string
}

// parseGoogle extracts organic result links in page order. Every result is
// an anchor wrapping an <h3>; ads and relative navigation links are skipped.
func parseGoogle(body []byte) ([]link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var links []link
	doc.Find("a:has(h3)").Each(func(_ int, a *goquery.Selection) {
		if a.Closest(googleAdSelector).Length() > 0 {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target := unwrapGoogleURL(href)
		if !isWebURL(target) {
			return
		}
		links = append(links, link{
			title: a.Find("h3").First().Text(),
			url:   target,
		})
	})
	return links, nil
}

// unwrapGoogleURL resolves /url?q=<target> redirect links.
func unwrapGoogleURL(href string) string {
	if !strings.HasPrefix(href, "/url?") && !strings.Contains(href, "google.com/url?") {
		return href
	}
	_, rawQuery, _ := strings.Cut(href, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return href
	}
	if q := params.Get("q"); q != "" {
		return q
	}
	if u := params.Get("url"); u != "" {
		return u
	}
	return href
}
