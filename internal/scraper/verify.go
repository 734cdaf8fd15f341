package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/FranksOps/agentrank/internal/analyzer"
	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/PuerkitoBio/goquery"
)

// PageVerifier confirms that a search hit lands on an agent's page. The
// verified hit carries the landing page's own title.
type PageVerifier struct {
	fetcher *Fetcher
	robots  *RobotsTxtAuditor
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]verdict
}

type verdict struct {
	title string
	ok    bool
}

// NewPageVerifier creates a verifier. A nil robots auditor skips robots.txt checks.
func NewPageVerifier(fetcher *Fetcher, robots *RobotsTxtAuditor, logger *slog.Logger) *PageVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageVerifier{
		fetcher: fetcher,
		robots:  robots,
		logger:  logger,
		seen:    make(map[string]verdict),
	}
}

// Verify fetches the hit's landing page and keeps the hit only if the page
// loads and its title looks like an agent or team. Results are memoised per
// URL for the lifetime of the verifier.
func (v *PageVerifier) Verify(ctx context.Context, hit ranking.Hit) (ranking.Hit, bool) {
	v.mu.Lock()
	cached, ok := v.seen[hit.URL]
	v.mu.Unlock()
	if !ok {
		cached = v.check(ctx, hit.URL)
		if ctx.Err() != nil {
			return hit, false
		}
		v.mu.Lock()
		v.seen[hit.URL] = cached
		v.mu.Unlock()
	}

	if !cached.ok {
		return hit, false
	}
	hit.Title = cached.title
	return hit, true
}

func (v *PageVerifier) check(ctx context.Context, target string) verdict {
	if v.robots != nil {
		allowed, err := v.robots.IsAllowed(ctx, target, v.fetcher.UserAgent())
		if err != nil || !allowed {
			v.logger.Debug("skipping page disallowed by robots.txt", "url", target, "err", err)
			return verdict{}
		}
	}

	page, err := v.fetcher.Fetch(ctx, target)
	if err != nil {
		return verdict{}
	}
	if !page.OK() {
		v.logger.Debug("skipping unreachable page",
			"url", target,
			"status", page.StatusCode,
			"detected", page.DetectionSrc,
			"err", page.Error,
		)
		return verdict{}
	}

	title := ExtractTitle(page.Body)
	if title == "" || !analyzer.LooksLikeAgent(title) {
		v.logger.Debug("page does not look like an agent", "url", target, "title", title)
		return verdict{}
	}
	return verdict{title: title, ok: true}
}

// ExtractTitle returns the page title, preferring og:title, then
// <meta name="title">, then <title>. It returns "" when none is present.
func ExtractTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if s := strings.TrimSpace(content); s != "" {
			return s
		}
	}
	if content, ok := doc.Find(`meta[name="title"]`).First().Attr("content"); ok {
		if s := strings.TrimSpace(content); s != "" {
			return s
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
