package analyzer

import (
	"slices"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/FranksOps/agentrank/internal/ranking"
)

// GoogleMaps is excluded in addition to the keyword list; map packs are not
// agent sites.
const GoogleMaps = "google.com/maps"

// DefaultDenylist holds the aggregator, portal, national brokerage, social and
// news patterns whose pages are never an individual agent or team.
var DefaultDenylist = []string{
	// portals and directories
	"zillow", "trulia", "redfin", "realtor.com", "movoto", "homelight", "homeguide",
	"fastexpert", "houzeo", "effectiveagents", "listwithclever", "upnest", "agentpronto",
	"agentproto", "ratemyagent", "topagentmagazine", "fivestarprofessional", "realtrends",
	"landsearch", "housecashin", "experience.com", "expertise", "expertise.com",
	"nar.realtor", "sulekha", "seolium", "thumbtack", "angi", "yelp", "yellowpages",
	"nextdoor", "bankrate", "glassdoor", "biggerpockets", "city-data", "usnews", "triple",
	// social
	"facebook", "instagram", "linkedin", "twitter", "x.com", "reddit", "youtube", "tiktok",
	// national brokerages
	"coldwellbanker", "remax", "sothebys", "bhhs", "kellerwilliams", "kw.com", "century21",
	"c21", "bhgre", "era.com", "elliman", "compass", "exprealty", "corcoran", "weichert",
	"howardhanna", "longandfoster", "realtyexecutives", "realtyonegroup", "homesmart",
	"exitrealty",
	// news and non-profit
	"bizjournals", "/news/", "/money/", "/business/", ".org",
	GoogleMaps,
}

// Denylist matches URLs against a fixed set of case-insensitive substring
// patterns in a single pass. It is safe for concurrent use.
type Denylist struct {
	patterns []string

	// the matcher keeps per-call state
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// NewDenylist compiles patterns into a Denylist. Patterns are lowercased and
// trimmed; empty and duplicate patterns are dropped. A nil or empty list
// produces a Denylist that allows everything.
func NewDenylist(patterns []string) *Denylist {
	normalized := make([]string, 0, len(patterns))
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}

	d := &Denylist{patterns: normalized}
	if len(normalized) > 0 {
		d.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return d
}

// Patterns returns a copy of the compiled patterns.
func (d *Denylist) Patterns() []string {
	return slices.Clone(d.patterns)
}

// Len returns the number of patterns.
func (d *Denylist) Len() int {
	return len(d.patterns)
}

// Match reports the first pattern, in list order, contained in s.
func (d *Denylist) Match(s string) (string, bool) {
	if d == nil || d.matcher == nil || s == "" {
		return "", false
	}

	d.mu.Lock()
	hits := d.matcher.Match([]byte(strings.ToLower(s)))
	d.mu.Unlock()

	if len(hits) == 0 {
		return "", false
	}
	return d.patterns[slices.Min(hits)], true
}

// Allows reports whether a hit passes the denylist. Only the URL is checked.
func (d *Denylist) Allows(h ranking.Hit) bool {
	_, denied := d.Match(h.URL)
	return !denied
}

// Filter returns the hits that pass the denylist, in order, and how many
// were dropped.
func (d *Denylist) Filter(hits []ranking.Hit) ([]ranking.Hit, int) {
	kept := make([]ranking.Hit, 0, len(hits))
	for _, h := range hits {
		if d.Allows(h) {
			kept = append(kept, h)
		}
	}
	return kept, len(hits) - len(kept)
}
