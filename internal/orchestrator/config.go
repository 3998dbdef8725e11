package orchestrator

import "github.com/jonesrussell/newsroom-crawler/internal/domain"

// Default configuration values.
const (
	DefaultConcurrency   = 1
	DefaultExcerptLength = 500
)

// Config is the immutable run configuration.
type Config struct {
	// Targets are the organizations crawled by every run, in order.
	Targets []domain.CrawlTarget
	// Concurrency is the number of organizations crawled in parallel.
	Concurrency int
	// ExcerptLength bounds the stored body excerpt, in characters.
	ExcerptLength int
	// ListingsDir receives the URL listings regenerated after each run.
	// Empty disables listings.
	ListingsDir string
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ExcerptLength <= 0 {
		c.ExcerptLength = DefaultExcerptLength
	}
	c.Targets = append([]domain.CrawlTarget(nil), c.Targets...)
	return c
}
