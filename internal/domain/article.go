// Package domain provides domain models used across the crawler.
package domain

import (
	"strings"
	"unicode/utf8"
)

// ArticleRecord is a qualified article. URL is its identity key.
type ArticleRecord struct {
	// Organization the article was discovered under
	Organization string `json:"organization" yaml:"organization"`
	// Title of the article
	Title string `json:"title" yaml:"title"`
	// URL is the normalized article location
	URL string `json:"url" yaml:"url"`
	// PublishedDateRaw is the date string as found on the page
	PublishedDateRaw string `json:"published_date_raw" yaml:"published_date_raw"`
	// MatchedTerms lists the search terms found, in configured term order
	MatchedTerms []string `json:"matched_terms" yaml:"matched_terms"`
	// BodyExcerpt is the bounded leading part of the body
	BodyExcerpt string `json:"body_excerpt" yaml:"body_excerpt"`
}

// CandidateRecord holds the fields the extractor pulled from a page.
type CandidateRecord struct {
	Title        string
	Body         string
	PublishedRaw string
}

// excerptEllipsis marks a truncated excerpt.
const excerptEllipsis = "..."

// Excerpt returns the first limit characters of body, followed by "..." when
// body was truncated. Truncation counts runes, never splitting a character.
func Excerpt(body string, limit int) string {
	body = strings.TrimSpace(body)
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return body
	}

	runes := []rune(body)
	return strings.TrimRightFunc(string(runes[:limit]), isSpace) + excerptEllipsis
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// NewArticleRecord builds the persisted record for a qualified candidate.
func NewArticleRecord(org, url string, c CandidateRecord, matched []string, excerptLen int) ArticleRecord {
	return ArticleRecord{
		Organization:     org,
		Title:            c.Title,
		URL:              url,
		PublishedDateRaw: c.PublishedRaw,
		MatchedTerms:     append([]string(nil), matched...),
		BodyExcerpt:      Excerpt(c.Body, excerptLen),
	}
}
