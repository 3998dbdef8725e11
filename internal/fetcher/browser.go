package fetcher

//go:generate mockgen -source=browser.go -destination=mocks/mock_browser.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// JavaScript snippets evaluated in the page.
const (
	scrollToBottomJS  = "window.scrollTo(0, document.body.scrollHeight);"
	documentHeightJS  = "document.body.scrollHeight"
	documentRootQuery = "html"
)

// Browser is a rendered page session.
type Browser interface {
	// Navigate loads url and waits for the page to be ready.
	Navigate(ctx context.Context, url string) error
	// ScrollToBottom scrolls the window to the current document end.
	ScrollToBottom(ctx context.Context) error
	// Height returns the current document scroll height.
	Height(ctx context.Context) (int64, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// Close releases the browser process.
	Close() error
}

// BrowserFactory starts a Browser.
type BrowserFactory func(ctx context.Context) (Browser, error)

// ChromeBrowser drives a headless Chrome instance through chromedp.
type ChromeBrowser struct {
	ctx             context.Context
	cancel          context.CancelFunc
	allocCancel     context.CancelFunc
	pageLoadTimeout time.Duration
}

// NewChromeFactory returns a BrowserFactory launching Chrome with cfg.
func NewChromeFactory(cfg Config) BrowserFactory {
	cfg = cfg.WithDefaults()
	return func(ctx context.Context) (Browser, error) {
		return NewChromeBrowser(ctx, cfg)
	}
}

// NewChromeBrowser launches Chrome. The browser lives until Close is called
// or ctx is cancelled.
func NewChromeBrowser(ctx context.Context, cfg Config) (*ChromeBrowser, error) {
	cfg = cfg.WithDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chrome.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.Chrome.WindowWidth, cfg.Chrome.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.Chrome.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Chrome.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &ChromeBrowser{
		ctx:             browserCtx,
		cancel:          browserCancel,
		allocCancel:     allocCancel,
		pageLoadTimeout: cfg.PageLoadTimeout,
	}, nil
}

// run executes actions on the browser tab, bounded by timeout and ctx.
func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url within the page load timeout.
func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, b.pageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// ScrollToBottom scrolls the window to the document end.
func (b *ChromeBrowser) ScrollToBottom(ctx context.Context) error {
	if err := b.run(ctx, b.pageLoadTimeout, chromedp.Evaluate(scrollToBottomJS, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Height returns document.body.scrollHeight.
func (b *ChromeBrowser) Height(ctx context.Context) (int64, error) {
	var height int64
	if err := b.run(ctx, b.pageLoadTimeout, chromedp.Evaluate(documentHeightJS, &height)); err != nil {
		return 0, fmt.Errorf("read document height: %w", err)
	}
	return height, nil
}

// HTML returns the outer HTML of the document root.
func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.pageLoadTimeout, chromedp.OuterHTML(documentRootQuery, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document html: %w", err)
	}
	return html, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}
