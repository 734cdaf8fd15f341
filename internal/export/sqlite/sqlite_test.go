package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/FranksOps/agentrank/internal/ranking"
)

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentrank.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("failed to create sqlite sink: %v", err)
	}

	now := time.Now().UTC()
	report := &pipeline.Report{
		RunID:         "run-1",
		Area:          "Austin",
		Provider:      "google",
		TotalQueries:  8,
		FailedQueries: 1,
		Stats:         pipeline.Stats{HitsSeen: 40, HitsDenied: 12, Sites: 20},
		Results: []ranking.RankedResult{
			{Key: "b.com", Title: "B", URL: "https://b.com", TotalScore: 2, AvgRank: 2, BestRank: 2, WorstRank: 2, Appearances: 1, TotalQueries: 8, Ranks: []int{2}},
			{Key: "a.com", Title: "A", URL: "https://a.com", TotalScore: 4, AvgRank: 2, BestRank: 1, WorstRank: 3, Appearances: 2, TotalQueries: 8, Ranks: []int{1, 3}},
		},
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
	}

	ctx := context.Background()
	if err := s.Save(ctx, report); err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	if err := s.Save(ctx, report); err == nil {
		t.Errorf("expected duplicate run id to be rejected")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()

	var failed, sites int
	if err := db.QueryRow(`SELECT failed_queries, sites FROM runs WHERE run_id = ?`, "run-1").Scan(&failed, &sites); err != nil {
		t.Fatalf("failed to read run: %v", err)
	}
	if failed != 1 || sites != 20 {
		t.Errorf("unexpected run row failed=%d sites=%d", failed, sites)
	}

	rows, err := db.Query(`SELECT position, site_key, total_score, ranks FROM ranked_results WHERE run_id = ? ORDER BY position`, "run-1")
	if err != nil {
		t.Fatalf("failed to query results: %v", err)
	}
	defer rows.Close()

	type row struct {
		position, total int
		key, ranks      string
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.position, &r.key, &r.total, &r.ranks); err != nil {
			t.Fatalf("failed to scan: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("row error: %v", err)
	}

	want := []row{{1, 2, "b.com", "2"}, {2, 4, "a.com", "1 3"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
