package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/nao1215/markdown"
)

// WriteMarkdown writes the report as a GitHub flavoured Markdown document.
func WriteMarkdown(w io.Writer, r *pipeline.Report) error {
	md := markdown.NewMarkdown(w)

	md.H1(fmt.Sprintf("Top agents in %s", r.Area))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Provider", r.Provider},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Queries", fmt.Sprintf("%d (%d failed)", r.TotalQueries, r.FailedQueries)},
			{"Hits", fmt.Sprintf("%d seen, %d denied, %d unverified", r.Stats.HitsSeen, r.Stats.HitsDenied, r.Stats.HitsUnverified)},
			{"Sites", strconv.Itoa(r.Stats.Sites)},
		},
	})
	md.PlainText("")

	if r.FailedQueries > 0 {
		md.Warningf("%d of %d searches failed; their results are missing from the ranking.", r.FailedQueries, r.TotalQueries)
		md.PlainText("")
	}

	md.H2("Ranking")
	md.PlainText("")
	if r.Empty() {
		md.Note("No results")
	} else {
		rows := make([][]string, 0, len(r.Results))
		for i, res := range r.Results {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				fmt.Sprintf("[%s](%s)", cell(res.Title), res.URL),
				strconv.Itoa(res.TotalScore),
				fmt.Sprintf("%.2f", res.AvgRank),
				strconv.Itoa(res.BestRank),
				strconv.Itoa(res.WorstRank),
				fmt.Sprintf("%d/%d", res.Appearances, res.TotalQueries),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Agent", "Total", "Avg", "Best", "Worst", "Appearances"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	md.H2("Queries")
	md.PlainText("")
	md.BulletList(r.Queries...)
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Lower total score is better.*")

	if err := md.Build(); err != nil {
		return fmt.Errorf("render markdown report: %w", err)
	}
	return nil
}

// cell escapes characters that would break a Markdown table cell or link text.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`, "\n", " ").Replace(s)
}
