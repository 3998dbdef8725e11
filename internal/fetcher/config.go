// Package fetcher retrieves page markup, first with a lightweight HTTP request
// and then, when that fails, with a headless browser that scrolls lazily
// loaded pages to their end.
package fetcher

import (
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/retry"
)

// Default configuration values.
const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultRequestTimeout    = 10 * time.Second
	defaultPageLoadTimeout   = 30 * time.Second
	defaultScrollPause       = 2 * time.Second
	defaultMaxScrolls        = 50
	defaultScrollMaxAttempts = 3
	defaultScrollInitialWait = 4 * time.Second
	defaultScrollMaxWait     = 10 * time.Second
	defaultWindowWidth       = 1920
	defaultWindowHeight      = 1080
)

// Config holds fetcher configuration.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	PageLoadTimeout time.Duration
	ScrollPause     time.Duration
	MaxScrolls      int
	// RenderSeeds renders seed pages in the browser before trying HTTP.
	RenderSeeds bool
	ScrollRetry retry.Config
	Chrome      ChromeConfig

	// RequestsPerSecond paces page loads across all sessions. Zero means
	// no limit.
	RequestsPerSecond float64
	Burst             int
}

// ChromeConfig holds headless browser launch options.
type ChromeConfig struct {
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = defaultPageLoadTimeout
	}
	if c.ScrollPause <= 0 {
		c.ScrollPause = defaultScrollPause
	}
	if c.MaxScrolls <= 0 {
		c.MaxScrolls = defaultMaxScrolls
	}
	if c.ScrollRetry.MaxAttempts <= 0 {
		c.ScrollRetry.MaxAttempts = defaultScrollMaxAttempts
	}
	if c.ScrollRetry.InitialDelay <= 0 {
		c.ScrollRetry.InitialDelay = defaultScrollInitialWait
	}
	if c.ScrollRetry.MaxDelay <= 0 {
		c.ScrollRetry.MaxDelay = defaultScrollMaxWait
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Chrome.WindowWidth <= 0 {
		c.Chrome.WindowWidth = defaultWindowWidth
	}
	if c.Chrome.WindowHeight <= 0 {
		c.Chrome.WindowHeight = defaultWindowHeight
	}
	c.ScrollRetry = c.ScrollRetry.WithDefaults()
	return c
}
