// Package csvexport appends ranked results to a CSV file, one row per result.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/agentrank/internal/export"
	"github.com/FranksOps/agentrank/internal/pipeline"
)

var _ export.Sink = (*csvSink)(nil)

type csvSink struct {
	mu   sync.Mutex
	file *os.File
}

// Header is the CSV column order.
var Header = []string{
	"run_id",
	"area",
	"provider",
	"position",
	"title",
	"url",
	"key",
	"total_score",
	"avg_rank",
	"best_rank",
	"worst_rank",
	"appearances",
	"total_queries",
	"ranks",
	"finished_at",
}

// New opens filePath for appending, writing the header if the file is new.
func New(filePath string) (export.Sink, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv export: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv export: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}

	return &csvSink{file: f}, nil
}

func (s *csvSink) Save(ctx context.Context, r *pipeline.Report) error {
	rows := export.Rows(r)
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.RunID,
			row.Area,
			row.Provider,
			strconv.Itoa(row.Position),
			row.Title,
			row.URL,
			row.Key,
			strconv.Itoa(row.TotalScore),
			strconv.FormatFloat(row.AvgRank, 'f', 2, 64),
			strconv.Itoa(row.BestRank),
			strconv.Itoa(row.WorstRank),
			strconv.Itoa(row.Appearances),
			strconv.Itoa(row.TotalQueries),
			export.JoinRanks(row.Ranks),
			row.FinishedAt.Format(time.RFC3339Nano),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := csv.NewWriter(s.file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	return nil
}

func (s *csvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
