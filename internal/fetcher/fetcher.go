package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/retry"
)

// Session fetches pages for one seed-URL crawl. The browser, if any, is
// started lazily and released by Close.
type Session interface {
	// FetchSeed fetches a listing page, rendering it first when configured.
	FetchSeed(ctx context.Context, url string) Outcome
	// Fetch fetches an article page, primary first then browser fallback.
	Fetch(ctx context.Context, url string) Outcome
	// Close releases the session's browser.
	Close() error
}

// Fetcher opens fetch sessions.
type Fetcher struct {
	cfg        Config
	primary    PrimaryFetcher
	newBrowser BrowserFactory
	sleep      SleepFunc
	limiter    *rate.Limiter
	log        logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPrimary replaces the HTTP fetcher.
func WithPrimary(p PrimaryFetcher) Option {
	return func(f *Fetcher) {
		f.primary = p
	}
}

// WithBrowserFactory replaces the Chrome launcher.
func WithBrowserFactory(factory BrowserFactory) Option {
	return func(f *Fetcher) {
		f.newBrowser = factory
	}
}

// WithSleep replaces the pause used between scrolls.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// New creates a Fetcher backed by colly and chromedp unless overridden.
func New(cfg Config, log logger.Logger, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	f := &Fetcher{
		cfg:     cfg,
		sleep:   ctxSleep,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     log,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.primary == nil {
		f.primary = NewHTTPFetcher(cfg)
	}
	if f.newBrowser == nil {
		f.newBrowser = NewChromeFactory(cfg)
	}
	return f
}

// Open starts a session. The browser is launched on first use and lives no
// longer than ctx.
func (f *Fetcher) Open(ctx context.Context) Session {
	return &session{fetcher: f, ctx: ctx}
}

type session struct {
	fetcher *Fetcher
	ctx     context.Context

	mu      sync.Mutex
	browser Browser
	closed  bool
}

var errSessionClosed = errors.New("fetch session closed")

func (s *session) FetchSeed(ctx context.Context, url string) Outcome {
	if !s.fetcher.cfg.RenderSeeds {
		return s.Fetch(ctx, url)
	}

	rendered := s.render(ctx, url)
	if rendered.OK() {
		return rendered
	}

	s.fetcher.log.Debug("Seed render failed, trying primary fetch",
		logger.URL(url),
		logger.Error(rendered.Err),
	)

	return s.get(ctx, url)
}

func (s *session) Fetch(ctx context.Context, url string) Outcome {
	if err := s.fetcher.limiter.Wait(ctx); err != nil {
		return failed(url, classify(err), 0, err)
	}

	primary := s.fetcher.primary.Get(ctx, url)
	if primary.OK() {
		return primary
	}

	s.fetcher.log.Debug("Primary fetch failed, falling back to browser",
		logger.URL(url),
		logger.String("kind", string(primary.Kind)),
		logger.Int("status", primary.Status),
		logger.Error(primary.Err),
	)

	if ctx.Err() != nil {
		return failed(url, classify(ctx.Err()), primary.Status, ctx.Err())
	}

	return s.render(ctx, url)
}

// get runs the primary fetch once the pacing limiter allows it.
func (s *session) get(ctx context.Context, url string) Outcome {
	if err := s.fetcher.limiter.Wait(ctx); err != nil {
		return failed(url, classify(err), 0, err)
	}
	return s.fetcher.primary.Get(ctx, url)
}

// render navigates the session browser to url and scrolls to the fixed point.
func (s *session) render(ctx context.Context, url string) Outcome {
	if err := s.fetcher.limiter.Wait(ctx); err != nil {
		return failed(url, classify(err), 0, err)
	}

	b, err := s.ensureBrowser()
	if err != nil {
		return failed(url, KindRender, 0, err)
	}

	if err = b.Navigate(ctx, url); err != nil {
		return failed(url, classifyRender(err), 0, err)
	}

	scrolls, err := ScrollToFixedPoint(ctx, b, ScrollConfig{
		Pause:      s.fetcher.cfg.ScrollPause,
		MaxScrolls: s.fetcher.cfg.MaxScrolls,
		Retry:      s.scrollRetry(url),
	}, s.fetcher.sleep)
	if err != nil {
		return failed(url, KindRender, 0, err)
	}

	html, err := b.HTML(ctx)
	if err != nil {
		return failed(url, classifyRender(err), 0, err)
	}

	s.fetcher.log.Debug("Rendered page",
		logger.URL(url),
		logger.Int("scrolls", scrolls),
	)

	return Outcome{URL: url, Markup: []byte(html), Mode: ModeFallback}
}

func (s *session) scrollRetry(url string) retry.Config {
	cfg := s.fetcher.cfg.ScrollRetry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.fetcher.log.Warn("Scroll pass failed, retrying",
			logger.URL(url),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	}
	return cfg
}

func (s *session) ensureBrowser() (Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errSessionClosed
	}
	if s.browser != nil {
		return s.browser, nil
	}

	b, err := s.fetcher.newBrowser(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	s.browser = b
	return b, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	s.browser = nil
	return err
}

func classifyRender(err error) ErrorKind {
	if kind := classify(err); kind == KindTimeout {
		return kind
	}
	return KindRender
}
