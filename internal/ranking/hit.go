// Package ranking groups search hits by site and orders sites by how well
// they placed across a set of queries.
package ranking

// Hit is one observed search result for a query.
type Hit struct {
	Query string `json:"query"`
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Observation is the best rank a site reached for a single query.
type Observation struct {
	Query string `json:"query"`
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SiteRecord accumulates observations for one distinct site. It holds at most
// one observation per query.
type SiteRecord struct {
	Key          string        `json:"key"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	Observations []Observation `json:"observations"`

	byQuery map[string]int
	best    Observation
}

// Ranks returns the rank observations in the order they were first seen.
func (r *SiteRecord) Ranks() []int {
	ranks := make([]int, len(r.Observations))
	for i, o := range r.Observations {
		ranks[i] = o.Rank
	}
	return ranks
}

// Appearances is the number of queries the site appeared in.
func (r *SiteRecord) Appearances() int {
	return len(r.Observations)
}

// RankedResult is a scored SiteRecord ready for sorting and display.
type RankedResult struct {
	Key          string  `json:"key" yaml:"key"`
	Title        string  `json:"title" yaml:"title"`
	URL          string  `json:"url" yaml:"url"`
	TotalScore   int     `json:"total_score" yaml:"total_score"`
	AvgRank      float64 `json:"avg_rank" yaml:"avg_rank"`
	BestRank     int     `json:"best_rank" yaml:"best_rank"`
	WorstRank    int     `json:"worst_rank" yaml:"worst_rank"`
	Appearances  int     `json:"appearances" yaml:"appearances"`
	TotalQueries int     `json:"total_queries" yaml:"total_queries"`
	Ranks        []int   `json:"ranks" yaml:"ranks"`
}
