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

// DefaultDuckDuckGoURL is the JavaScript-free endpoint DuckDuckGo serves.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes DuckDuckGo's HTML results, skipping sponsored entries.
type DuckDuckGo struct {
	BaseURL string
	fetcher PageFetcher
	logger  *slog.Logger
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates a DuckDuckGo provider fetching through fetcher.
func NewDuckDuckGo(fetcher PageFetcher, logger *slog.Logger) *DuckDuckGo {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDuckGo{
		BaseURL: DefaultDuckDuckGoURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (d *DuckDuckGo) Name() string {
	return ProviderDuckDuckGo
}

// Search returns up to limit organic results for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return []Result{}, nil
	}

	set := newResultSet(limit)
	for offset := 0; !set.full(); {
		page, err := fetchPage(ctx, d.fetcher, d.Name(), query, d.pageURL(query, offset))
		if err != nil {
			return nil, err
		}

		links, err := parseDuckDuckGo(page.Body)
		if err != nil {
			return nil, &SearchError{Provider: d.Name(), Query: query, StatusCode: page.StatusCode, Err: err}
		}

		added := 0
		for _, l := range links {
			if set.add(l.title, l.url) {
				added++
			}
		}
		d.logger.Debug("parsed duckduckgo results page", "query", query, "offset", offset, "links", len(links), "new", added)
		if added == 0 {
			break
		}
		offset += len(links)
	}

	return set.results, nil
}

func (d *DuckDuckGo) pageURL(query string, offset int) string {
	v := url.Values{}
	v.Set("q", query)
	if offset > 0 {
		v.Set("s", strconv.Itoa(offset))
		v.Set("dc", strconv.Itoa(offset+1))
	}
	v.Set("kl", "us-en")
	return d.BaseURL + "?" + v.Encode()
}

func parseDuckDuckGo(body []byte) ([]link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var links []link
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") || s.Find(".badge--ad").Length() > 0 {
			return
		}
		a := s.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target := unwrapDuckDuckGoURL(href)
		if !isWebURL(target) {
			return
		}
		links = append(links, link{title: a.Text(), url: target})
	})
	return links, nil
}

// unwrapDuckDuckGoURL resolves //duckduckgo.com/l/?uddg=<target> redirects.
func unwrapDuckDuckGoURL(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/?") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
