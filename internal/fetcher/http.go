package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocolly/colly/v2"
)

// Accepted final status range for primary fetches.
const (
	statusMinOK = 200
	statusMaxOK = 399
)

// ErrUnexpectedStatus is returned when the final response status is outside 2xx/3xx.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// PrimaryFetcher performs the lightweight fetch attempted before the browser.
type PrimaryFetcher interface {
	Get(ctx context.Context, url string) Outcome
}

// HTTPFetcher fetches pages with a colly collector.
type HTTPFetcher struct {
	collector *colly.Collector
}

// NewHTTPFetcher creates an HTTPFetcher sending cfg.UserAgent with a
// cfg.RequestTimeout bound on every request.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	cfg = cfg.WithDefaults()

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(cfg.RequestTimeout)

	return &HTTPFetcher{collector: c}
}

// Get issues one GET request. Redirects are followed; the final status must
// be 2xx or 3xx.
func (h *HTTPFetcher) Get(ctx context.Context, url string) Outcome {
	c := h.collector.Clone()
	c.Context = ctx

	var (
		status int
		body   []byte
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		return failed(url, classify(err), status, fmt.Errorf("get %s: %w", url, err))
	}

	if status < statusMinOK || status > statusMaxOK {
		return failed(url, KindStatus, status, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status))
	}

	return Outcome{URL: url, Markup: body, Mode: ModePrimary, Status: status}
}
