// Package filter decides whether an extracted page qualifies as a relevant article.
package filter

import (
	"strings"
	"sync"
	"time"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// Rejection reasons.
const (
	ReasonNoTermMatch    = "no_term_match"
	ReasonUnparsableDate = "unparsable_date"
	ReasonBeforeCutoff   = "before_cutoff"
	ReasonQualified      = ""
)

// Decision is the result of evaluating a candidate.
type Decision struct {
	Qualified    bool
	MatchedTerms []string
	Published    time.Time
	Reason       string
}

// Filter applies the keyword gate and the date gate.
type Filter struct {
	terms  []string
	cutoff time.Time

	// patterns[i] is a distinct lowercased term; owners[i] lists the
	// indexes into terms that share it.
	patterns []string
	owners   [][]int

	// Matcher keeps per-call scratch state, so matches are serialized.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// New creates a Filter. Terms are matched case-insensitively; dates on or
// after cutoff pass the date gate.
func New(terms []string, cutoff time.Time) *Filter {
	f := &Filter{
		terms:  append([]string(nil), terms...),
		cutoff: cutoff,
	}

	seen := make(map[string]int, len(terms))
	for i, term := range terms {
		lower := strings.ToLower(term)
		if lower == "" {
			continue
		}
		if idx, ok := seen[lower]; ok {
			f.owners[idx] = append(f.owners[idx], i)
			continue
		}
		seen[lower] = len(f.patterns)
		f.patterns = append(f.patterns, lower)
		f.owners = append(f.owners, []int{i})
	}

	if len(f.patterns) > 0 {
		f.matcher = ahocorasick.NewStringMatcher(f.patterns)
	}
	return f
}

// Cutoff returns the earliest qualifying publish date.
func (f *Filter) Cutoff() time.Time {
	return f.cutoff
}

// MatchTerms returns every configured term found in title or body, in
// configured order. Title and body are scanned separately so a match never
// spans the two.
func (f *Filter) MatchTerms(title, body string) []string {
	if f.matcher == nil {
		return nil
	}

	hit := make([]bool, len(f.terms))
	f.mu.Lock()
	for _, text := range [...]string{title, body} {
		for _, p := range f.matcher.Match([]byte(strings.ToLower(text))) {
			for _, i := range f.owners[p] {
				hit[i] = true
			}
		}
	}
	f.mu.Unlock()

	var matched []string
	for i, ok := range hit {
		if ok {
			matched = append(matched, f.terms[i])
		}
	}
	return matched
}

// Evaluate runs both gates against a candidate. Both must pass.
func (f *Filter) Evaluate(c domain.CandidateRecord) Decision {
	matched := f.MatchTerms(c.Title, c.Body)
	if len(matched) == 0 {
		return Decision{Reason: ReasonNoTermMatch}
	}

	published, err := ParseDate(c.PublishedRaw)
	if err != nil {
		return Decision{MatchedTerms: matched, Reason: ReasonUnparsableDate}
	}

	if published.Before(f.cutoff) {
		return Decision{MatchedTerms: matched, Published: published, Reason: ReasonBeforeCutoff}
	}

	return Decision{
		Qualified:    true,
		MatchedTerms: matched,
		Published:    published,
		Reason:       ReasonQualified,
	}
}
