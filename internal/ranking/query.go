package ranking

import "strings"

// AreaPlaceholder is replaced with the area name in every query template.
const AreaPlaceholder = "{area}"

// DefaultTemplates are the phrases searched for every run, in order.
var DefaultTemplates = []string{
	"best realtors in {area}",
	"best real estate agents in {area}",
	"best real estate agents {area}",
	"best realtor in {area}",
	"top realtors in {area}",
	"top real estate agents in {area}",
	"top real estate agents {area}",
	"top {area} realtors",
}

// Query is a single search phrase generated for an area.
type Query struct {
	Template string `json:"template" yaml:"template"`
	Text     string `json:"text" yaml:"text"`
}

// Queries expands each template with the trimmed area. A nil or empty
// template list falls back to DefaultTemplates.
func Queries(area string, templates []string) []Query {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	area = strings.TrimSpace(area)

	queries := make([]Query, 0, len(templates))
	for _, tmpl := range templates {
		queries = append(queries, Query{
			Template: tmpl,
			Text:     strings.ReplaceAll(tmpl, AreaPlaceholder, area),
		})
	}
	return queries
}

// Texts returns the query strings in order.
func Texts(queries []Query) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q.Text
	}
	return out
}
