package csvexport

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/FranksOps/agentrank/internal/ranking"
)

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.csv")

	report := &pipeline.Report{
		RunID:      "run-1",
		Area:       "Austin, TX",
		Provider:   "google",
		FinishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []ranking.RankedResult{
			{Key: "b.com", Title: "B, the \"team\"", URL: "https://b.com", TotalScore: 2, AvgRank: 2, BestRank: 2, WorstRank: 2, Appearances: 1, TotalQueries: 2, Ranks: []int{2}},
			{Key: "a.com", Title: "A", URL: "https://a.com", TotalScore: 4, AvgRank: 2, BestRank: 1, WorstRank: 3, Appearances: 2, TotalQueries: 2, Ranks: []int{1, 3}},
		},
	}

	for range 2 {
		s, err := New(path)
		if err != nil {
			t.Fatalf("failed to create csv sink: %v", err)
		}
		if err := s.Save(context.Background(), report); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}

	// Header is written once; each save appends its rows.
	if len(records) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d", len(records))
	}
	if records[0][0] != "run_id" || len(records[0]) != len(Header) {
		t.Errorf("unexpected header %v", records[0])
	}
	first := records[1]
	if first[3] != "1" || first[4] != `B, the "team"` || first[7] != "2" || first[8] != "2.00" {
		t.Errorf("unexpected first row %v", first)
	}
	if records[2][13] != "1 3" {
		t.Errorf("expected ranks \"1 3\", got %q", records[2][13])
	}
	if records[2][14] != "2025-03-01T12:00:00Z" {
		t.Errorf("unexpected finished_at %q", records[2][14])
	}
}
