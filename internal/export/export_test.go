package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/FranksOps/agentrank/internal/ranking"
)

type recordingSink struct {
	saved  int
	closed bool
	err    error
}

func (s *recordingSink) Save(context.Context, *pipeline.Report) error {
	s.saved++
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.err
}

func TestRows(t *testing.T) {
	finished := time.Now().UTC()
	r := &pipeline.Report{
		RunID:      "run",
		Area:       "Austin",
		Provider:   "google",
		FinishedAt: finished,
		Results: []ranking.RankedResult{
			{Key: "b.com", Title: "B", URL: "https://b.com", TotalScore: 2, Ranks: []int{2}},
			{Key: "a.com", Title: "A", URL: "https://a.com", TotalScore: 4, Ranks: []int{1, 3}},
		},
	}

	rows := Rows(r)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Position != 1 || rows[1].Position != 2 || rows[1].Key != "a.com" {
		t.Errorf("unexpected rows %+v", rows)
	}
	if rows[0].RunID != "run" || rows[0].Area != "Austin" || !rows[0].FinishedAt.Equal(finished) {
		t.Errorf("expected run metadata on every row, got %+v", rows[0])
	}
	if Rows(nil) != nil {
		t.Errorf("expected nil rows for nil report")
	}
	if got := JoinRanks(rows[1].Ranks); got != "1 3" {
		t.Errorf("expected \"1 3\", got %q", got)
	}
}

func TestMulti(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	m := Multi{failing, ok}

	err := m.Save(context.Background(), &pipeline.Report{})
	if err == nil || err.Error() != "disk full" {
		t.Errorf("expected joined save error, got %v", err)
	}
	if ok.saved != 1 {
		t.Errorf("expected later sinks to still be saved")
	}

	if err := m.Close(); err == nil {
		t.Errorf("expected close error")
	}
	if !failing.closed || !ok.closed {
		t.Errorf("expected every sink to be closed")
	}

	if err := (Multi{}).Save(context.Background(), nil); err != nil {
		t.Errorf("expected empty multi to succeed, got %v", err)
	}
}
