// Package export writes finished reports to files and databases. Sinks are
// write-only; nothing in agentrank reads exported runs back.
package export

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/agentrank/internal/pipeline"
)

// Sink receives every finished report.
type Sink interface {
	Save(ctx context.Context, r *pipeline.Report) error
	Close() error
}

// Row is one ranked result flattened together with its run metadata.
type Row struct {
	RunID        string
	Area         string
	Provider     string
	Position     int
	Key          string
	Title        string
	URL          string
	TotalScore   int
	AvgRank      float64
	BestRank     int
	WorstRank    int
	Appearances  int
	TotalQueries int
	Ranks        []int
	FinishedAt   time.Time
}

// Rows flattens a report into one Row per ranked result, in rank order.
func Rows(r *pipeline.Report) []Row {
	if r == nil {
		return nil
	}
	rows := make([]Row, 0, len(r.Results))
	for i, res := range r.Results {
		rows = append(rows, Row{
			RunID:        r.RunID,
			Area:         r.Area,
			Provider:     r.Provider,
			Position:     i + 1,
			Key:          res.Key,
			Title:        res.Title,
			URL:          res.URL,
			TotalScore:   res.TotalScore,
			AvgRank:      res.AvgRank,
			BestRank:     res.BestRank,
			WorstRank:    res.WorstRank,
			Appearances:  res.Appearances,
			TotalQueries: res.TotalQueries,
			Ranks:        res.Ranks,
			FinishedAt:   r.FinishedAt,
		})
	}
	return rows
}

// JoinRanks renders ranks as a space separated list, e.g. "1 3 7".
func JoinRanks(ranks []int) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}

// Multi fans a report out to several sinks.
type Multi []Sink

var _ Sink = Multi(nil)

// Save writes to every sink, continuing past failures, and joins the errors.
func (m Multi) Save(ctx context.Context, r *pipeline.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins the errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
