package extractor

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// dateLayout formats the fallback publish date.
const dateLayout = "2006-01-02"

// nonContentSelector matches elements whose text never belongs to an article.
const nonContentSelector = "script, style, noscript"

// Default selector chains.
var (
	DefaultTitleChain = Selectors("h1", "h2", ".article-title", ".post-title")
	DefaultBodyChain  = Selectors("article", ".article-content", ".post-content", ".entry-content")
	DefaultDateChain  = Chain{
		{Selector: "time", Attr: "datetime"},
		{Selector: "time"},
		{Selector: ".date"},
		{Selector: ".article-date"},
		{Selector: ".post-date"},
	}
)

// Extractor pulls title, body and publish date out of page markup.
type Extractor struct {
	title Chain
	body  Chain
	date  Chain
	now   func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the fallback publish date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithChains replaces the title, body and date chains. Nil chains keep the default.
func WithChains(title, body, date Chain) Option {
	return func(e *Extractor) {
		if title != nil {
			e.title = title
		}
		if body != nil {
			e.body = body
		}
		if date != nil {
			e.date = date
		}
	}
}

// New creates an Extractor with the default chains.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		title: DefaultTitleChain,
		body:  DefaultBodyChain,
		date:  DefaultDateChain,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the candidate fields found in markup. It reports false
// (NoData) when the markup cannot be parsed or no title is found.
func (e *Extractor) Extract(markup []byte) (domain.CandidateRecord, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return domain.CandidateRecord{}, false
	}
	doc.Find(nonContentSelector).Remove()

	title, ok := e.title.First(doc)
	if !ok {
		return domain.CandidateRecord{}, false
	}

	body, ok := e.body.First(doc)
	if !ok {
		body = paragraphText(doc)
	}

	published, ok := e.date.First(doc)
	if !ok {
		published = e.now().Format(dateLayout)
	}

	return domain.CandidateRecord{
		Title:        title,
		Body:         body,
		PublishedRaw: published,
	}, true
}

// paragraphText joins the text of every paragraph in document order.
func paragraphText(doc *goquery.Document) string {
	parts := make([]string, 0)
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// PageText returns the whitespace-cleaned text of a whole page with scripts
// and styles removed, one phrase per line.
func PageText(markup []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()

	var chunks []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				chunks = append(chunks, phrase)
			}
		}
	}

	return strings.Join(chunks, "\n"), nil
}
