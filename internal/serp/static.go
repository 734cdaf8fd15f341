package serp

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static answers queries from fixed data. Lookups ignore case and
// surrounding whitespace. Unknown queries return no results.
type Static struct {
	ProviderName string
	Results      map[string][]Result
	Errors       map[string]error
}

var _ Provider = (*Static)(nil)

// NewStatic creates an empty static provider.
func NewStatic() *Static {
	return &Static{
		Results: make(map[string][]Result),
		Errors:  make(map[string]error),
	}
}

// Set registers results for query. Results with a zero position take their
// 1-based index.
func (s *Static) Set(query string, results ...Result) *Static {
	out := make([]Result, len(results))
	for i, r := range results {
		if r.Position == 0 {
			r.Position = i + 1
		}
		out[i] = r
	}
	s.Results[normalizeQuery(query)] = out
	return s
}

// Fail makes query return err.
func (s *Static) Fail(query string, err error) *Static {
	s.Errors[normalizeQuery(query)] = err
	return s
}

func (s *Static) Name() string {
	if s.ProviderName != "" {
		return s.ProviderName
	}
	return ProviderStatic
}

// Search returns the first limit registered results for query.
func (s *Static) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Result{}, nil
	}

	key := normalizeQuery(query)
	if err, ok := s.Errors[key]; ok {
		var se *SearchError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &SearchError{Provider: s.Name(), Query: query, Err: err}
	}

	results := s.Results[key]
	out := make([]Result, min(limit, len(results)))
	copy(out, results)
	return out, nil
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// ErrDuplicateQuery is returned by ParseStatic when two fixture keys name the
// same query once case and spacing are ignored.
var ErrDuplicateQuery = errors.New("serp: duplicate fixture query")

// Fixture is the YAML layout LoadStatic reads:
//
//	provider: fixture
//	queries:
//	  best realtors in austin, tx:
//	    results:
//	      - title: Jane Doe Realty
//	        url: https://janedoe.example
//	  top austin, tx realtors:
//	    error: quota exceeded
type Fixture struct {
	Provider string                  `yaml:"provider"`
	Queries  map[string]FixtureQuery `yaml:"queries"`
}

// FixtureQuery holds the canned answer for one query.
type FixtureQuery struct {
	Results []Result `yaml:"results"`
	Error   string   `yaml:"error"`
}

// LoadStatic reads a YAML fixture file into a Static provider.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic decodes YAML fixture data into a Static provider.
func ParseStatic(data []byte) (*Static, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	queries := slices.Sorted(maps.Keys(fx.Queries))
	seen := make(map[string]string, len(queries))
	for _, q := range queries {
		key := normalizeQuery(q)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q and %q", ErrDuplicateQuery, prev, q)
		}
		seen[key] = q
	}

	s := NewStatic()
	s.ProviderName = fx.Provider
	for _, q := range queries {
		fq := fx.Queries[q]
		if fq.Error != "" {
			s.Fail(q, errors.New(fq.Error))
			continue
		}
		s.Set(q, fq.Results...)
	}
	return s, nil
}
