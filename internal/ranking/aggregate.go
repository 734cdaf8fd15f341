package ranking

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// KeyMode selects how hits are grouped into sites.
type KeyMode string

const (
	// KeyByURL groups hits by their canonical URL.
	KeyByURL KeyMode = "url"
	// KeyByTitle groups hits by case-folded title.
	KeyByTitle KeyMode = "title"
)

// ParseKeyMode converts a flag or config value into a KeyMode. The empty
// string selects KeyByURL.
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyByURL:
		return KeyByURL, nil
	case KeyByTitle:
		return KeyByTitle, nil
	default:
		return "", fmt.Errorf("unknown key mode %q", s)
	}
}

// Aggregator folds hits into per-site records. The resulting statistics do not
// depend on the order hits are added in. An Aggregator is not safe for
// concurrent use.
type Aggregator struct {
	mode    KeyMode
	fold    cases.Caser
	records map[string]*SiteRecord
}

// NewAggregator returns an empty Aggregator keyed by mode.
func NewAggregator(mode KeyMode) *Aggregator {
	if mode == "" {
		mode = KeyByURL
	}
	return &Aggregator{
		mode:    mode,
		fold:    cases.Fold(),
		records: make(map[string]*SiteRecord),
	}
}

// Key returns the site identity for a hit under the aggregator's mode.
func (a *Aggregator) Key(h Hit) string {
	if a.mode == KeyByTitle {
		return strings.Join(strings.Fields(a.fold.String(h.Title)), " ")
	}
	return CanonicalURL(h.URL)
}

// Add records a hit. It reports false if the hit was ignored because its rank
// is not positive or it has no identity. A repeat of the same site within one
// query keeps the better rank.
func (a *Aggregator) Add(h Hit) bool {
	if h.Rank <= 0 {
		return false
	}
	key := a.Key(h)
	if key == "" {
		return false
	}

	obs := Observation{Query: h.Query, Rank: h.Rank, Title: strings.TrimSpace(h.Title), URL: h.URL}

	rec, ok := a.records[key]
	if !ok {
		rec = &SiteRecord{
			Key:     key,
			byQuery: make(map[string]int),
		}
		a.records[key] = rec
	}

	if idx, seen := rec.byQuery[h.Query]; seen {
		if betterObservation(obs, rec.Observations[idx]) {
			rec.Observations[idx] = obs
		}
	} else {
		rec.byQuery[h.Query] = len(rec.Observations)
		rec.Observations = append(rec.Observations, obs)
	}

	if !seenBefore(rec) || betterObservation(obs, rec.best) {
		rec.best = obs
	}
	rec.Title = rec.best.Title
	rec.URL = rec.best.URL
	if a.mode == KeyByURL {
		rec.URL = key
	}
	return true
}

// seenBefore reports whether rec.best has been set.
func seenBefore(rec *SiteRecord) bool {
	return rec.best.Rank > 0
}

// Collect adds every hit produced by seq and returns how many were recorded.
func (a *Aggregator) Collect(seq iter.Seq[Hit]) int {
	n := 0
	for h := range seq {
		if a.Add(h) {
			n++
		}
	}
	return n
}

// Len returns the number of distinct sites seen so far.
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Records returns the site records sorted by key.
func (a *Aggregator) Records() []*SiteRecord {
	out := make([]*SiteRecord, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(x, y *SiteRecord) int {
		return strings.Compare(x.Key, y.Key)
	})
	return out
}

// betterObservation orders observations by rank, then title, then url so the
// representative choice is independent of arrival order.
func betterObservation(a, b Observation) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.URL < b.URL
}
