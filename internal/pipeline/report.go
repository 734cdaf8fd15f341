package pipeline

import (
	"time"

	"github.com/FranksOps/agentrank/internal/ranking"
)

// Stats counts what happened to search hits during a run.
type Stats struct {
	// HitsSeen is the number of results returned across all queries.
	HitsSeen int `json:"hits_seen" yaml:"hits_seen"`
	// HitsDenied were dropped by the denylist.
	HitsDenied int `json:"hits_denied" yaml:"hits_denied"`
	// HitsUnverified failed landing page verification.
	HitsUnverified int `json:"hits_unverified" yaml:"hits_unverified"`
	// Sites is the number of distinct sites aggregated before truncation.
	Sites int `json:"sites" yaml:"sites"`
}

// Report is the outcome of one run.
type Report struct {
	RunID         string                 `json:"run_id" yaml:"run_id"`
	Area          string                 `json:"area" yaml:"area"`
	Provider      string                 `json:"provider" yaml:"provider"`
	Queries       []string               `json:"queries" yaml:"queries"`
	TotalQueries  int                    `json:"total_queries" yaml:"total_queries"`
	FailedQueries int                    `json:"failed_queries" yaml:"failed_queries"`
	Stats         Stats                  `json:"stats" yaml:"stats"`
	Results       []ranking.RankedResult `json:"results" yaml:"results"`
	StartedAt     time.Time              `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time              `json:"finished_at" yaml:"finished_at"`
}

// Empty reports whether the run produced no ranked results.
func (r *Report) Empty() bool {
	return r == nil || len(r.Results) == 0
}

// Duration is how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
