package ranking

// ScoreOptions controls how site records are turned into ranked results.
type ScoreOptions struct {
	// TotalQueries is the number of queries issued in the run, including
	// queries whose search failed.
	TotalQueries int
	// MissPenalty, when positive, is charged as the rank for every query a
	// site did not appear in. Zero scores only the observed ranks.
	MissPenalty int
}

// Score computes summary statistics for every record. Records without
// observations are skipped.
func Score(records []*SiteRecord, opts ScoreOptions) []RankedResult {
	results := make([]RankedResult, 0, len(records))
	for _, rec := range records {
		if rec == nil || len(rec.Observations) == 0 {
			continue
		}
		results = append(results, scoreRecord(rec, opts))
	}
	return results
}

func scoreRecord(rec *SiteRecord, opts ScoreOptions) RankedResult {
	ranks := rec.Ranks()
	appearances := len(ranks)

	total := 0
	best, worst := ranks[0], ranks[0]
	for _, r := range ranks {
		total += r
		best = min(best, r)
		worst = max(worst, r)
	}

	totalQueries := max(opts.TotalQueries, appearances)
	avg := float64(total) / float64(appearances)

	if missed := totalQueries - appearances; opts.MissPenalty > 0 && missed > 0 {
		total += missed * opts.MissPenalty
		worst = max(worst, opts.MissPenalty)
		avg = float64(total) / float64(totalQueries)
	}

	return RankedResult{
		Key:          rec.Key,
		Title:        rec.Title,
		URL:          rec.URL,
		TotalScore:   total,
		AvgRank:      avg,
		BestRank:     best,
		WorstRank:    worst,
		Appearances:  appearances,
		TotalQueries: totalQueries,
		Ranks:        ranks,
	}
}
