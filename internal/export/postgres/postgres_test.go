package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/google/uuid"
)

func TestPostgresSink(t *testing.T) {
	// Only run this test if AGENTRANK_TEST_PG_DSN is set
	dsn := os.Getenv("AGENTRANK_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres export test: AGENTRANK_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres sink: %v", err)
	}
	defer s.Close()

	runID := uuid.NewString()
	now := time.Now().UTC()
	report := &pipeline.Report{
		RunID:        runID,
		Area:         "Austin",
		Provider:     "google",
		TotalQueries: 8,
		Results: []ranking.RankedResult{
			{Key: "a.com", Title: "A", URL: "https://a.com", TotalScore: 4, AvgRank: 2, BestRank: 1, WorstRank: 3, Appearances: 2, TotalQueries: 8, Ranks: []int{1, 3}},
		},
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
	}

	if err := s.Save(ctx, report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	pool := s.(*postgresSink).pool
	var (
		key   string
		ranks []int32
	)
	err = pool.QueryRow(ctx, `SELECT site_key, ranks FROM ranked_results WHERE run_id = $1 AND position = 1`, runID).Scan(&key, &ranks)
	if err != nil {
		t.Fatalf("Failed to read ranked result: %v", err)
	}
	if key != "a.com" || len(ranks) != 2 || ranks[0] != 1 || ranks[1] != 3 {
		t.Errorf("unexpected row key=%s ranks=%v", key, ranks)
	}

	if err := s.Save(ctx, report); err == nil {
		t.Errorf("expected duplicate run id to be rejected")
	}
}
