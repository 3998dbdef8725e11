// Package extractor turns raw page markup into candidate article fields using
// declarative, ordered selector chains.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule selects a value from a document. An empty Attr selects element text.
type Rule struct {
	Selector string
	Attr     string
}

// Chain is an ordered list of rules evaluated left to right.
type Chain []Rule

// Selectors builds a text chain from CSS selectors.
func Selectors(selectors ...string) Chain {
	chain := make(Chain, 0, len(selectors))
	for _, s := range selectors {
		chain = append(chain, Rule{Selector: s})
	}
	return chain
}

// First returns the first non-empty value produced by the chain.
func (c Chain) First(doc *goquery.Document) (string, bool) {
	for _, rule := range c {
		if value, ok := rule.first(doc.Selection); ok {
			return value, true
		}
	}
	return "", false
}

func (r Rule) first(root *goquery.Selection) (string, bool) {
	var (
		value string
		found bool
	)

	root.Find(r.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if r.Attr != "" {
			attr, _ := s.Attr(r.Attr)
			value = cleanText(attr)
		} else {
			value = cleanText(s.Text())
		}
		found = value != ""
		return !found
	})

	return value, found
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
