// Package postgres records runs and their ranked results in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/agentrank/internal/export"
	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ export.Sink = (*postgresSink)(nil)

type postgresSink struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	area TEXT NOT NULL,
	provider TEXT NOT NULL,
	total_queries INTEGER NOT NULL,
	failed_queries INTEGER NOT NULL,
	hits_seen INTEGER NOT NULL,
	hits_denied INTEGER NOT NULL,
	hits_unverified INTEGER NOT NULL,
	sites INTEGER NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	position INTEGER NOT NULL,
	site_key TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	total_score INTEGER NOT NULL,
	avg_rank DOUBLE PRECISION NOT NULL,
	best_rank INTEGER NOT NULL,
	worst_rank INTEGER NOT NULL,
	appearances INTEGER NOT NULL,
	total_queries INTEGER NOT NULL,
	ranks INTEGER[] NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// New connects to dsn and ensures the schema exists.
func New(ctx context.Context, dsn string) (export.Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres export: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres export: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	return &postgresSink{pool: pool}, nil
}

// Save inserts the run and all of its ranked results in one transaction.
func (s *postgresSink) Save(ctx context.Context, r *pipeline.Report) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
		INSERT INTO runs (
			run_id, area, provider, total_queries, failed_queries, hits_seen, hits_denied, hits_unverified, sites, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.RunID,
			r.Area,
			r.Provider,
			r.TotalQueries,
			r.FailedQueries,
			r.Stats.HitsSeen,
			r.Stats.HitsDenied,
			r.Stats.HitsUnverified,
			r.Stats.Sites,
			r.StartedAt,
			r.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, row := range export.Rows(r) {
			batch.Queue(`
			INSERT INTO ranked_results (
				run_id, position, site_key, title, url, total_score, avg_rank, best_rank, worst_rank, appearances, total_queries, ranks
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				row.RunID,
				row.Position,
				row.Key,
				row.Title,
				row.URL,
				row.TotalScore,
				row.AvgRank,
				row.BestRank,
				row.WorstRank,
				row.Appearances,
				row.TotalQueries,
				row.Ranks,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert ranked results: %w", err)
		}
		return nil
	})
}

func (s *postgresSink) Close() error {
	s.pool.Close()
	return nil
}
