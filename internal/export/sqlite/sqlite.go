// Package sqlite records runs and their ranked results in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/agentrank/internal/export"
	"github.com/FranksOps/agentrank/internal/pipeline"
	_ "modernc.org/sqlite"
)

var _ export.Sink = (*sqliteSink)(nil)

type sqliteSink struct {
	db *sql.DB
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
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	position INTEGER NOT NULL,
	site_key TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	total_score INTEGER NOT NULL,
	avg_rank REAL NOT NULL,
	best_rank INTEGER NOT NULL,
	worst_rank INTEGER NOT NULL,
	appearances INTEGER NOT NULL,
	total_queries INTEGER NOT NULL,
	ranks TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// New opens (or creates) the database at dsn and ensures the schema exists.
func New(dsn string) (export.Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite export: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &sqliteSink{db: db}, nil
}

// Save inserts the run and all of its ranked results in one transaction.
func (s *sqliteSink) Save(ctx context.Context, r *pipeline.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (
		run_id, area, provider, total_queries, failed_queries, hits_seen, hits_denied, hits_unverified, sites, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO ranked_results (
		run_id, position, site_key, title, url, total_score, avg_rank, best_rank, worst_rank, appearances, total_queries, ranks
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ranked result insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range export.Rows(r) {
		_, err := stmt.ExecContext(ctx,
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
			export.JoinRanks(row.Ranks),
		)
		if err != nil {
			return fmt.Errorf("insert ranked result %d: %w", row.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite export: %w", err)
	}
	return nil
}

func (s *sqliteSink) Close() error {
	return s.db.Close()
}
