// Package metrics exposes Prometheus counters for searches, hit filtering and
// page fetches.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes used as the status label.
const (
	SearchOK      = "ok"
	SearchFailed  = "error"
	SearchBlocked = "blocked"
)

// Hit outcomes used as the outcome label.
const (
	HitKept       = "kept"
	HitDenied     = "denied"
	HitUnverified = "unverified"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrank_searches_total",
			Help: "Total number of search queries issued",
		},
		[]string{"provider", "status"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentrank_search_duration_seconds",
			Help:    "Duration of search queries in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	HitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrank_hits_total",
			Help: "Search hits by filtering outcome",
		},
		[]string{"outcome"},
	)

	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrank_page_fetches_total",
			Help: "Total number of page fetches executed",
		},
		[]string{"domain", "status", "detected", "detection_src"},
	)

	PageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrank_page_bytes_total",
			Help: "Total bytes downloaded across all page fetches",
		},
		[]string{"domain"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrank_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSearch counts one finished query.
func RecordSearch(provider, status string, d time.Duration) {
	SearchesTotal.WithLabelValues(provider, status).Inc()
	SearchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordHits adds n hits with the given outcome. Non-positive n is ignored.
func RecordHits(outcome string, n int) {
	if n <= 0 {
		return
	}
	HitsTotal.WithLabelValues(outcome).Add(float64(n))
}

// RecordFetch counts a page fetch. A status of zero marks a transport error.
func RecordFetch(domain string, status int, detectionSrc string, bytes int) {
	statusStr := "error"
	if status > 0 {
		statusStr = strconv.Itoa(status)
	}
	PageFetchesTotal.WithLabelValues(domain, statusStr, strconv.FormatBool(detectionSrc != ""), detectionSrc).Inc()
	PageBytesTotal.WithLabelValues(domain).Add(float64(bytes))
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the given port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", srv.Addr, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
