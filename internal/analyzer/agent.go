// Package analyzer decides which search hits can belong to an agent site.
package analyzer

import "strings"

// AgentIndicators are title fragments that mark a page as belonging to an
// agent, team or brokerage office.
var AgentIndicators = []string{
	"realtor",
	"real estate agent",
	"team",
	"realty",
	"broker",
}

// LooksLikeAgent reports whether title contains any agent indicator,
// ignoring case.
func LooksLikeAgent(title string) bool {
	lower := strings.ToLower(title)
	for _, indicator := range AgentIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
