package report

import (
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"

	"github.com/FranksOps/agentrank/internal/pipeline"
)

var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"avg":  func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"date": func(r *pipeline.Report) string { return r.StartedAt.Format("2006-01-02 15:04:05 MST") },
}

const textTmpl = `{{- if .Empty -}}
No results
{{- else -}}
Top {{len .Results}} agents (lower total_score is better):
{{- range $i, $r := .Results}}
{{inc $i}}. {{$r.Title}} - {{$r.URL}}
    total_score={{$r.TotalScore}}, avg_rank={{avg $r.AvgRank}}, best_rank={{$r.BestRank}}, worst_rank={{$r.WorstRank}}, appearances={{$r.Appearances}}/{{$r.TotalQueries}}
{{- end}}
{{- end}}
`

var textReport = template.Must(template.New("textReport").Funcs(funcs).Parse(textTmpl))

// WriteText writes the plain listing: a header line, then two lines per
// ranked result.
func WriteText(w io.Writer, r *pipeline.Report) error {
	if err := textReport.Execute(w, r); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Top agents in {{.Area}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Top agents in {{.Area}}</h1>
  <p><strong>Run:</strong> {{.RunID}} via {{.Provider}} at {{date .}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Queries</div>
    <div class="stat-val">{{.TotalQueries}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .FailedQueries 0}}red{{else}}green{{end}};">{{.FailedQueries}}</div>
  </div>
  <div class="stat-card">
    <div>Hits</div>
    <div class="stat-val">{{.Stats.HitsSeen}}</div>
  </div>
  <div class="stat-card">
    <div>Denied</div>
    <div class="stat-val">{{.Stats.HitsDenied}}</div>
  </div>
  <div class="stat-card">
    <div>Sites</div>
    <div class="stat-val">{{.Stats.Sites}}</div>
  </div>

  <h3>Ranking (lower total score is better)</h3>
  <table>
    <tr><th>#</th><th>Agent</th><th>Total</th><th>Avg</th><th>Best</th><th>Worst</th><th>Appearances</th></tr>
    {{- range $i, $r := .Results}}
    <tr><td>{{inc $i}}</td><td><a href="{{$r.URL}}">{{$r.Title}}</a></td><td>{{$r.TotalScore}}</td><td>{{avg $r.AvgRank}}</td><td>{{$r.BestRank}}</td><td>{{$r.WorstRank}}</td><td>{{$r.Appearances}}/{{$r.TotalQueries}}</td></tr>
    {{- else}}
    <tr><td colspan="7">No results</td></tr>
    {{- end}}
  </table>

  <h3>Queries</h3>
  <ul>
    {{- range .Queries}}
    <li>{{.}}</li>
    {{- end}}
  </ul>
</body>
</html>
`

var htmlReport = htmltemplate.Must(htmltemplate.New("htmlReport").Funcs(htmltemplate.FuncMap(funcs)).Parse(htmlTmpl))

// WriteHTML writes a standalone HTML page.
func WriteHTML(w io.Writer, r *pipeline.Report) error {
	if err := htmlReport.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
