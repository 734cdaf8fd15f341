package report

import (
	"fmt"
	"io"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	agentColumnWidth = 40
	urlColumnWidth   = 50
)

// WriteTable writes the ranking as a bordered terminal table.
func WriteTable(w io.Writer, r *pipeline.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Top agents in %s", r.Area)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: agentColumnWidth},
		{Number: 3, WidthMax: urlColumnWidth},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.AppendHeader(table.Row{"#", "Agent", "URL", "Total", "Avg", "Best", "Worst", "Seen"})
	for i, res := range r.Results {
		t.AppendRow(table.Row{
			i + 1,
			res.Title,
			res.URL,
			res.TotalScore,
			fmt.Sprintf("%.2f", res.AvgRank),
			res.BestRank,
			res.WorstRank,
			fmt.Sprintf("%d/%d", res.Appearances, res.TotalQueries),
		})
	}
	if r.Empty() {
		t.AppendRow(table.Row{"", "No results"})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d queries, %d failed", r.TotalQueries, r.FailedQueries), fmt.Sprintf("%d sites", r.Stats.Sites)})

	t.Render()
	return nil
}
