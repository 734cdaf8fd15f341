package ranking

import (
	"slices"
	"testing"
)

func exampleHits() []Hit {
	return []Hit{
		{Query: "q1", Rank: 1, Title: "A", URL: "a.com"},
		{Query: "q2", Rank: 3, Title: "A", URL: "a.com"},
		{Query: "q1", Rank: 2, Title: "B", URL: "b.com"},
	}
}

func TestRank_Example(t *testing.T) {
	agg := NewAggregator(KeyByURL)
	agg.Collect(slices.Values(exampleHits()))

	ranked := Rank(Score(agg.Records(), ScoreOptions{TotalQueries: 2}), 2)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}

	b, a := ranked[0], ranked[1]
	if b.Title != "B" || a.Title != "A" {
		t.Fatalf("expected order [B, A], got [%s, %s]", b.Title, a.Title)
	}
	if b.TotalScore != 2 || b.AvgRank != 2 || b.Appearances != 1 || b.TotalQueries != 2 {
		t.Errorf("unexpected B stats: %+v", b)
	}
	if a.TotalScore != 4 || a.AvgRank != 2 || a.Appearances != 2 || a.TotalQueries != 2 {
		t.Errorf("unexpected A stats: %+v", a)
	}
	if a.BestRank != 1 || a.WorstRank != 3 {
		t.Errorf("expected A best=1 worst=3, got best=%d worst=%d", a.BestRank, a.WorstRank)
	}
}

func TestAggregator_OrderIndependent(t *testing.T) {
	hits := []Hit{
		{Query: "q1", Rank: 4, Title: "Smith Team", URL: "https://smith.com/"},
		{Query: "q2", Rank: 2, Title: "Smith Team | Realtors", URL: "https://www.smith.com"},
		{Query: "q3", Rank: 7, Title: "Smith Team", URL: "https://smith.com/?utm_source=x"},
		{Query: "q1", Rank: 1, Title: "Jones Realty", URL: "https://jones.com/about"},
		{Query: "q3", Rank: 5, Title: "Jones Realty", URL: "https://jones.com/about#team"},
	}

	forward := NewAggregator(KeyByURL)
	forward.Collect(slices.Values(hits))

	reversed := slices.Clone(hits)
	slices.Reverse(reversed)
	backward := NewAggregator(KeyByURL)
	backward.Collect(slices.Values(reversed))

	f := Rank(Score(forward.Records(), ScoreOptions{TotalQueries: 3}), 10)
	b := Rank(Score(backward.Records(), ScoreOptions{TotalQueries: 3}), 10)

	if len(f) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 sites each way, got %d and %d", len(f), len(b))
	}
	for i := range f {
		if f[i].Key != b[i].Key || f[i].TotalScore != b[i].TotalScore || f[i].Title != b[i].Title {
			t.Errorf("result %d differs by order: %+v vs %+v", i, f[i], b[i])
		}
	}
	if f[0].Key != "https://jones.com/about" || f[0].TotalScore != 6 {
		t.Errorf("expected jones first with total 6, got %+v", f[0])
	}
	if f[1].TotalScore != 13 {
		t.Errorf("expected smith total 13, got %d", f[1].TotalScore)
	}
	if f[1].Title != "Smith Team | Realtors" {
		t.Errorf("expected best-ranked title, got %q", f[1].Title)
	}
}

func TestAggregator_DedupesWithinQuery(t *testing.T) {
	agg := NewAggregator(KeyByURL)
	agg.Add(Hit{Query: "q1", Rank: 9, Title: "A", URL: "https://a.com/x"})
	agg.Add(Hit{Query: "q1", Rank: 3, Title: "A", URL: "https://a.com/x/"})
	agg.Add(Hit{Query: "q1", Rank: 5, Title: "A", URL: "https://a.com/x"})

	recs := agg.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Appearances() != 1 {
		t.Fatalf("expected 1 appearance, got %d", recs[0].Appearances())
	}
	if got := recs[0].Ranks(); len(got) != 1 || got[0] != 3 {
		t.Errorf("expected ranks [3], got %v", got)
	}
}

func TestAggregator_IgnoresInvalidHits(t *testing.T) {
	agg := NewAggregator(KeyByURL)
	if agg.Add(Hit{Query: "q1", Rank: 0, Title: "A", URL: "a.com"}) {
		t.Errorf("expected rank 0 to be ignored")
	}
	if agg.Add(Hit{Query: "q1", Rank: 1, Title: "A", URL: "  "}) {
		t.Errorf("expected empty url to be ignored")
	}
	if agg.Len() != 0 {
		t.Errorf("expected no records, got %d", agg.Len())
	}
}

func TestAggregator_KeyByTitle(t *testing.T) {
	agg := NewAggregator(KeyByTitle)
	agg.Add(Hit{Query: "q1", Rank: 2, Title: "The  Smith TEAM", URL: "https://smith.com"})
	agg.Add(Hit{Query: "q2", Rank: 1, Title: "the smith team", URL: "https://smithteam.net"})

	recs := agg.Records()
	if len(recs) != 1 {
		t.Fatalf("expected titles to fold into 1 record, got %d", len(recs))
	}
	if recs[0].URL != "https://smithteam.net" {
		t.Errorf("expected url of best observation, got %q", recs[0].URL)
	}
}

func TestScore_MissPenalty(t *testing.T) {
	agg := NewAggregator(KeyByURL)
	agg.Collect(slices.Values(exampleHits()))

	results := Score(agg.Records(), ScoreOptions{TotalQueries: 2, MissPenalty: 51})
	var b RankedResult
	for _, r := range results {
		if r.Title == "B" {
			b = r
		}
	}
	if b.TotalScore != 53 {
		t.Errorf("expected penalised total 53, got %d", b.TotalScore)
	}
	if b.WorstRank != 51 {
		t.Errorf("expected worst rank to be the penalty, got %d", b.WorstRank)
	}
	if b.AvgRank != 26.5 {
		t.Errorf("expected avg 26.5, got %v", b.AvgRank)
	}
}

func TestScore_TotalEqualsSumOfRanks(t *testing.T) {
	hits := []Hit{
		{Query: "q1", Rank: 10, Title: "X", URL: "x.com"},
		{Query: "q2", Rank: 20, Title: "X", URL: "x.com"},
		{Query: "q3", Rank: 5, Title: "X", URL: "x.com"},
	}
	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
		agg := NewAggregator(KeyByURL)
		for _, i := range order {
			agg.Add(hits[i])
		}
		res := Score(agg.Records(), ScoreOptions{TotalQueries: 8})
		if len(res) != 1 || res[0].TotalScore != 35 {
			t.Errorf("order %v: expected total 35, got %+v", order, res)
		}
		if res[0].Appearances != 3 || res[0].TotalQueries != 8 {
			t.Errorf("order %v: expected 3/8 appearances, got %d/%d", order, res[0].Appearances, res[0].TotalQueries)
		}
	}
}

func TestRank_Truncation(t *testing.T) {
	results := []RankedResult{
		{Title: "c", TotalScore: 3},
		{Title: "a", TotalScore: 1},
		{Title: "b", TotalScore: 2},
	}
	for _, n := range []int{-1, 0, 1, 2, 3, 10} {
		got := Rank(results, n)
		want := min(max(n, 0), len(results))
		if len(got) != want {
			t.Errorf("n=%d: expected %d results, got %d", n, want, len(got))
		}
		if got == nil {
			t.Errorf("n=%d: expected non-nil slice", n)
		}
	}
	if results[0].Title != "c" {
		t.Errorf("expected input to be left unsorted")
	}
}

func TestRank_TieBreaks(t *testing.T) {
	results := []RankedResult{
		{Title: "Zeta", TotalScore: 6, AvgRank: 3},
		{Title: "Beta", TotalScore: 6, AvgRank: 2},
		{Title: "Alpha", TotalScore: 6, AvgRank: 3},
		{Title: "Omega", TotalScore: 5, AvgRank: 5},
	}
	got := Rank(results, 4)
	want := []string{"Omega", "Beta", "Alpha", "Zeta"}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i].Title)
		}
	}
}

func TestQueries(t *testing.T) {
	qs := Queries("  pittsburgh pa ", nil)
	if len(qs) != len(DefaultTemplates) {
		t.Fatalf("expected %d queries, got %d", len(DefaultTemplates), len(qs))
	}
	if qs[0].Text != "best realtors in pittsburgh pa" {
		t.Errorf("unexpected first query %q", qs[0].Text)
	}
	if qs[7].Text != "top pittsburgh pa realtors" {
		t.Errorf("unexpected last query %q", qs[7].Text)
	}

	custom := Queries("erie", []string{"realtor {area} reviews"})
	if len(custom) != 1 || custom[0].Text != "realtor erie reviews" {
		t.Errorf("unexpected custom queries %+v", custom)
	}
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"https://WWW.Example.com/Team/":                    "https://example.com/Team",
		"https://example.com:443/a?utm_source=g&b=2&a=1":   "https://example.com/a?a=1&b=2",
		"http://example.com:8080/#contact":                 "http://example.com:8080",
		"https://example.com/?gclid=abc&srsltid=xyz":       "https://example.com",
		"a.com":                                            "a.com",
		" HTTPS://Agent.Example.org/path?fbclid=1&UTM_X=2": "https://agent.example.org/path",
	}
	for in, want := range cases {
		if got := CanonicalURL(in); got != want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseKeyMode(t *testing.T) {
	if m, err := ParseKeyMode(""); err != nil || m != KeyByURL {
		t.Errorf("expected default url mode, got %q %v", m, err)
	}
	if m, err := ParseKeyMode("Title"); err != nil || m != KeyByTitle {
		t.Errorf("expected title mode, got %q %v", m, err)
	}
	if _, err := ParseKeyMode("domain"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
