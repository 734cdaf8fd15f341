package scraper

import (
	"net/http"
	"time"
)

// Page is the captured outcome of a single GET. Transport failures are
// reported through Error rather than a returned error so that callers can
// still inspect timing and the proxy decision.
type Page struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	FinalURL     string        `json:"final_url,omitempty"`
	StatusCode   int           `json:"status_code"`
	Headers      http.Header   `json:"headers,omitempty"`
	Body         []byte        `json:"-"`
	Duration     time.Duration `json:"duration"`
	DetectedBot  bool          `json:"detected_bot"`
	DetectionSrc string        `json:"detection_src,omitempty"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Error        string        `json:"error,omitempty"`
}

// OK reports whether the fetch completed with a 2xx status and no bot challenge.
func (p *Page) OK() bool {
	return p != nil && p.Error == "" && !p.DetectedBot && p.StatusCode >= 200 && p.StatusCode < 300
}
