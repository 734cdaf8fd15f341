// Package pipeline runs one ranking pass: generate the area's queries, search
// each one, filter the hits, then aggregate, score and rank the surviving sites.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/FranksOps/agentrank/internal/analyzer"
	"github.com/FranksOps/agentrank/internal/metrics"
	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/FranksOps/agentrank/internal/serp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoProvider is returned by Run when the Pipeline has no search provider.
var ErrNoProvider = errors.New("pipeline: search provider is nil")

// Config parameterises a single run.
type Config struct {
	Area string
	// Templates override ranking.DefaultTemplates when non-empty.
	Templates []string
	// Top is the number of ranked results kept.
	Top int
	// ResultsPerQuery is the limit passed to every search.
	ResultsPerQuery int
	// Concurrency bounds in-flight searches. Values below 1 run sequentially.
	Concurrency int
	MissPenalty int
	KeyMode     ranking.KeyMode
	// Verify fetches every kept hit's landing page through the Verifier.
	Verify bool
}

// Verifier confirms a hit by inspecting its landing page. It may rewrite the
// hit, typically replacing the title with the page's own.
type Verifier interface {
	Verify(ctx context.Context, hit ranking.Hit) (ranking.Hit, bool)
}

// Pipeline wires the collaborators of a run. Denylist, Verifier, Logger and
// Progress are optional.
type Pipeline struct {
	Provider serp.Provider
	Denylist *analyzer.Denylist
	Verifier Verifier
	Logger   *slog.Logger
	// Progress is called once after every query finishes, successful or not.
	// It may be called from several goroutines when Concurrency > 1.
	Progress func()
}

// queryOutcome is what one query contributes to the run.
type queryOutcome struct {
	hits       []ranking.Hit
	seen       int
	denied     int
	unverified int
	failed     bool
}

// Run executes the pipeline. Individual search failures are logged and
// counted; only context cancellation or a missing provider fail the run.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Report, error) {
	if p.Provider == nil {
		return nil, ErrNoProvider
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queries := ranking.Queries(cfg.Area, cfg.Templates)
	report := &Report{
		RunID:        uuid.NewString(),
		Area:         cfg.Area,
		Provider:     p.Provider.Name(),
		Queries:      ranking.Texts(queries),
		TotalQueries: len(queries),
		Results:      []ranking.RankedResult{},
		StartedAt:    time.Now().UTC(),
	}

	if cfg.Top <= 0 || cfg.ResultsPerQuery <= 0 {
		logger.Info("nothing to rank", "top", cfg.Top, "results_per_query", cfg.ResultsPerQuery)
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	verifier := p.Verifier
	if !cfg.Verify {
		verifier = nil
	} else if verifier == nil {
		logger.Warn("page verification requested without a verifier, skipping")
	}

	outcomes := make([]queryOutcome, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))

	for i, q := range queries {
		g.Go(func() error {
			defer p.progress()
			out, err := p.runQuery(gctx, logger, verifier, q, cfg.ResultsPerQuery)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := ranking.NewAggregator(cfg.KeyMode)
	for _, out := range outcomes {
		agg.Collect(slices.Values(out.hits))
		report.Stats.HitsSeen += out.seen
		report.Stats.HitsDenied += out.denied
		report.Stats.HitsUnverified += out.unverified
		if out.failed {
			report.FailedQueries++
		}
	}
	report.Stats.Sites = agg.Len()

	scored := ranking.Score(agg.Records(), ranking.ScoreOptions{
		TotalQueries: len(queries),
		MissPenalty:  cfg.MissPenalty,
	})
	report.Results = ranking.Rank(scored, cfg.Top)
	report.FinishedAt = time.Now().UTC()

	logger.Info("ranking complete",
		"run_id", report.RunID,
		"area", cfg.Area,
		"queries", report.TotalQueries,
		"failed", report.FailedQueries,
		"sites", report.Stats.Sites,
		"results", len(report.Results),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// runQuery searches one query and filters its hits. A failed search yields a
// failed outcome; only context cancellation is returned as an error.
func (p *Pipeline) runQuery(ctx context.Context, logger *slog.Logger, verifier Verifier, q ranking.Query, limit int) (queryOutcome, error) {
	var out queryOutcome
	provider := p.Provider.Name()

	logger.Info("searching query", "query", q.Text)
	start := time.Now()
	results, err := p.Provider.Search(ctx, q.Text, limit)
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		status := metrics.SearchFailed
		if errors.Is(err, serp.ErrBlocked) {
			status = metrics.SearchBlocked
		}
		metrics.RecordSearch(provider, status, time.Since(start))
		logger.Warn("search failed", "query", q.Text, "err", err)
		out.failed = true
		return out, nil
	}
	metrics.RecordSearch(provider, metrics.SearchOK, time.Since(start))

	hits := make([]ranking.Hit, 0, len(results))
	for _, r := range results {
		if len(hits) == limit {
			break
		}
		hits = append(hits, ranking.Hit{Query: q.Text, Rank: r.Position, Title: r.Title, URL: r.URL})
	}
	out.seen = len(hits)

	if p.Denylist != nil {
		hits, out.denied = p.Denylist.Filter(hits)
	}

	if verifier != nil {
		verified := hits[:0]
		for _, h := range hits {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if vh, ok := verifier.Verify(ctx, h); ok {
				verified = append(verified, vh)
				continue
			}
			out.unverified++
		}
		hits = verified
	}
	out.hits = hits

	metrics.RecordHits(metrics.HitDenied, out.denied)
	metrics.RecordHits(metrics.HitUnverified, out.unverified)
	metrics.RecordHits(metrics.HitKept, len(hits))
	logger.Debug("query finished",
		"query", q.Text,
		"results", out.seen,
		"denied", out.denied,
		"unverified", out.unverified,
		"kept", len(hits),
	)
	return out, nil
}

func (p *Pipeline) progress() {
	if p.Progress != nil {
		p.Progress()
	}
}
