package ranking

import (
	"cmp"
	"slices"
	"strings"
)

// Rank sorts results ascending by total score, breaking ties by average rank,
// then title, then URL, and keeps the first n. The input is not modified.
// n <= 0 yields an empty list.
func Rank(results []RankedResult, n int) []RankedResult {
	if n <= 0 || len(results) == 0 {
		return []RankedResult{}
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, compareResults)

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func compareResults(a, b RankedResult) int {
	if c := cmp.Compare(a.TotalScore, b.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.AvgRank, b.AvgRank); c != 0 {
		return c
	}
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.URL, b.URL)
}
