package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for startup errors.
func (c *Config) Validate() error {
	if err := c.validateCrawl(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return invalid("elasticsearch.addresses", "required when elasticsearch is enabled")
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return invalid("schedule.cron", "%v", err)
		}
	}
	return nil
}

func (c *Config) validateCrawl() error {
	if c.Crawl.Cutoff.IsZero() {
		return invalid("crawl.cutoff", "is required (YYYY-MM-DD)")
	}
	if c.Crawl.ExcerptLength <= 0 {
		return invalid("crawl.excerpt_length", "must be positive")
	}
	if c.Crawl.OrgConcurrency <= 0 {
		return invalid("crawl.org_concurrency", "must be positive")
	}
	for i, term := range c.Crawl.Terms {
		if strings.TrimSpace(term) == "" {
			return invalid(fmt.Sprintf("crawl.terms[%d]", i), "must not be blank")
		}
	}
	return nil
}

func (c *Config) validateFetcher() error {
	f := c.Fetcher
	if f.RequestTimeout <= 0 {
		return invalid("fetcher.request_timeout", "must be positive")
	}
	if f.PageLoadTimeout <= 0 {
		return invalid("fetcher.page_load_timeout", "must be positive")
	}
	if f.ScrollPause < 0 {
		return invalid("fetcher.scroll_pause", "must not be negative")
	}
	if f.MaxScrolls <= 0 {
		return invalid("fetcher.max_scrolls", "must be positive")
	}
	if f.RequestsPerSecond < 0 {
		return invalid("fetcher.requests_per_second", "must not be negative")
	}
	if f.ScrollRetry.MaxAttempts <= 0 {
		return invalid("fetcher.scroll_retry.max_attempts", "must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	required := map[string]string{
		"storage.results_json": s.ResultsJSON,
		"storage.results_csv":  s.ResultsCSV,
		"storage.snapshot_dir": s.SnapshotDir,
		"storage.url_dir":      s.URLDir,
	}
	for field, value := range required {
		if value == "" {
			return invalid(field, "is required")
		}
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Driver {
	case DriverSQLite, DriverPostgres:
		if c.State.DSN == "" {
			return invalid("state.dsn", "is required for driver %s", c.State.Driver)
		}
	case DriverRedis:
		if c.State.Redis.Address == "" {
			return invalid("state.redis.address", "is required for driver redis")
		}
	case DriverMemory:
	default:
		return invalid("state.driver", "must be one of: sqlite, postgres, redis, memory")
	}

	switch c.State.FailurePolicy {
	case PolicyMark, PolicyRetry:
		return nil
	default:
		return invalid("state.failure_policy", "must be one of: mark, retry")
	}
}

func (c *Config) validateRegistry() error {
	seen := make(map[string]bool, len(c.Registry))
	for i, org := range c.Registry {
		if strings.TrimSpace(org.Name) == "" {
			return invalid(fmt.Sprintf("registry[%d].name", i), "is required")
		}
		key := strings.ToLower(org.Name)
		if seen[key] {
			return invalid(fmt.Sprintf("registry[%d].name", i), "duplicate organization %s", org.Name)
		}
		seen[key] = true

		if len(org.Seeds) == 0 {
			return invalid(fmt.Sprintf("registry[%d].seeds", i), "at least one seed URL is required")
		}
		for j, seed := range org.Seeds {
			if err := validateSeedURL(seed); err != nil {
				return invalid(fmt.Sprintf("registry[%d].seeds[%d]", i, j), "%v", err)
			}
		}
	}
	return nil
}

// validateSeedURL requires an absolute http(s) URL with a host.
func validateSeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
