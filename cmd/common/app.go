package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/newsroom-crawler/internal/config"
	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/extractor"
	"github.com/jonesrussell/newsroom-crawler/internal/fetcher"
	"github.com/jonesrussell/newsroom-crawler/internal/filter"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/metrics"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
	"github.com/jonesrussell/newsroom-crawler/internal/state"
	"github.com/jonesrussell/newsroom-crawler/internal/store"
)

// App is the wired crawl pipeline shared by the crawl, serve and export commands.
type App struct {
	Config       *config.Config
	Logger       logger.Logger
	Store        *store.ResultStore
	Snapshots    *store.SnapshotWriter
	Ledger       state.Ledger
	Tracker      *state.Tracker
	Metrics      *metrics.Metrics
	Orchestrator *orchestrator.Orchestrator
}

// NewApp loads the result store and the ledger, seeds the processed-URL set
// and builds the orchestrator for the configured organizations. A corrupt
// results file is returned as an error.
func NewApp(ctx context.Context, deps CommandDeps) (*App, error) {
	cfg := deps.Config
	log := deps.Logger

	targets, err := cfg.Targets()
	if err != nil {
		return nil, err
	}

	results := store.NewResultStore(cfg.Storage.ResultsJSON, cfg.Storage.ResultsCSV)
	existing, err := results.Load()
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	log.Info("Loaded existing results",
		logger.Int("records", len(existing)),
		logger.String("path", cfg.Storage.ResultsJSON),
	)

	ledger, err := state.Open(ctx, state.Config{
		Driver: cfg.State.Driver,
		DSN:    cfg.State.DSN,
		Redis: state.RedisConfig{
			Address:  cfg.State.Redis.Address,
			Password: cfg.State.Redis.Password,
			DB:       cfg.State.Redis.DB,
			Key:      cfg.State.Redis.Key,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open state ledger: %w", err)
	}

	tracker := state.NewTracker(ledger, state.Policy(cfg.State.FailurePolicy))
	if loadErr := tracker.Load(ctx, results.URLs()); loadErr != nil {
		_ = ledger.Close()
		return nil, loadErr
	}
	log.Info("Processed URL set loaded",
		logger.Int("urls", tracker.Len()),
		logger.String("driver", cfg.State.Driver),
		logger.String("failure_policy", string(tracker.Policy())),
	)

	m := metrics.New()
	m.SetStoredRecords(results.Len())

	mirror := newMirror(ctx, cfg, log)
	snapshots := store.NewSnapshotWriter(cfg.Storage.SnapshotDir)

	orch, err := orchestrator.New(orchestrator.Config{
		Targets:       crawlTargets(targets),
		Concurrency:   cfg.Crawl.OrgConcurrency,
		ExcerptLength: cfg.Crawl.ExcerptLength,
		ListingsDir:   cfg.Storage.URLDir,
	}, orchestrator.Params{
		Logger:    log,
		Sessions:  fetcher.New(fetcherConfig(cfg.Fetcher), log),
		Extractor: extractor.New(),
		Filter:    filter.New(cfg.Crawl.Terms, cfg.Crawl.Cutoff),
		Store:     results,
		Snapshots: snapshots,
		Tracker:   tracker,
		Mirror:    mirror,
		Metrics:   m,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       log,
		Store:        results,
		Snapshots:    snapshots,
		Ledger:       ledger,
		Tracker:      tracker,
		Metrics:      m,
		Orchestrator: orch,
	}, nil
}

// Close releases the ledger and flushes the logger.
func (a *App) Close() error {
	err := a.Ledger.Close()
	_ = a.Logger.Sync()
	if err != nil {
		return fmt.Errorf("close state ledger: %w", err)
	}
	return nil
}

// newMirror connects the Elasticsearch mirror when enabled. The mirror is
// optional, so a connection failure is logged and the files stay the only
// output.
func newMirror(ctx context.Context, cfg *config.Config, log logger.Logger) store.Mirror {
	if !cfg.Elasticsearch.Enabled {
		return store.NopMirror{}
	}

	mirror, err := store.NewElasticsearchMirror(ctx, store.MirrorConfig{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Index:     cfg.Elasticsearch.Index,
	}, log)
	if err != nil {
		log.Warn("Elasticsearch mirror disabled", logger.Error(err))
		return store.NopMirror{}
	}
	return mirror
}

func crawlTargets(orgs []config.Organization) []domain.CrawlTarget {
	targets := make([]domain.CrawlTarget, 0, len(orgs))
	for _, org := range orgs {
		targets = append(targets, domain.NewCrawlTarget(org.Name, org.Seeds))
	}
	return targets
}

func fetcherConfig(c config.FetcherConfig) fetcher.Config {
	return fetcher.Config{
		UserAgent:         c.UserAgent,
		RequestTimeout:    c.RequestTimeout,
		PageLoadTimeout:   c.PageLoadTimeout,
		ScrollPause:       c.ScrollPause,
		MaxScrolls:        c.MaxScrolls,
		RenderSeeds:       c.RenderSeeds,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		ScrollRetry:       c.ScrollRetry,
		Chrome: fetcher.ChromeConfig{
			Headless:     c.Chrome.Headless,
			ExecPath:     c.Chrome.ExecPath,
			WindowWidth:  c.Chrome.WindowWidth,
			WindowHeight: c.Chrome.WindowHeight,
		},
	}
}

// IsCancellation reports whether err only records an interrupted run.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
