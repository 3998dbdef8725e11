// Package orchestrator drives crawl runs: organizations, their seed pages and
// every link discovered on them, through fetch, extraction, filtering and
// persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/fetcher"
	"github.com/jonesrussell/newsroom-crawler/internal/filter"
	"github.com/jonesrussell/newsroom-crawler/internal/frontier"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/metrics"
	"github.com/jonesrussell/newsroom-crawler/internal/store"
)

var (
	// ErrRunInProgress is returned when Run is called while another run executes.
	ErrRunInProgress = errors.New("crawl run already in progress")
	// ErrMissingDependency is returned by New when a required dependency is nil.
	ErrMissingDependency = errors.New("missing orchestrator dependency")
)

// Run status labels.
const (
	statusSuccess   = "success"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

// SessionOpener opens a fetch session per seed crawl.
type SessionOpener interface {
	Open(ctx context.Context) fetcher.Session
}

// PageExtractor turns markup into a candidate record.
type PageExtractor interface {
	Extract(markup []byte) (domain.CandidateRecord, bool)
}

// Gate decides whether a candidate qualifies.
type Gate interface {
	Evaluate(c domain.CandidateRecord) filter.Decision
}

// RecordStore persists qualified records.
type RecordStore interface {
	Append(r domain.ArticleRecord) error
	Records() []domain.ArticleRecord
	Len() int
}

// SnapshotStore persists page text.
type SnapshotStore interface {
	Exists(org, url string) bool
	Write(s domain.Snapshot) (bool, error)
}

// URLTracker is the processed-URL set.
type URLTracker interface {
	// BeginRun starts a new run; non-durable outcomes of the last run are
	// forgotten.
	BeginRun()
	Claim(url string) bool
	Release(url string)
	MarkProcessed(ctx context.Context, url string, outcome domain.LinkOutcome) error
}

// Params holds the orchestrator's collaborators.
type Params struct {
	Logger    logger.Logger
	Sessions  SessionOpener
	Extractor PageExtractor
	Filter    Gate
	Store     RecordStore
	Snapshots SnapshotStore
	Tracker   URLTracker
	// Mirror is optional.
	Mirror store.Mirror
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Orchestrator runs crawls. At most one run executes at a time.
type Orchestrator struct {
	cfg       Config
	log       logger.Logger
	sessions  SessionOpener
	extractor PageExtractor
	filter    Gate
	store     RecordStore
	snapshots SnapshotStore
	tracker   URLTracker
	mirror    store.Mirror
	metrics   *metrics.Metrics
	now       func() time.Time

	running atomic.Bool

	mu   sync.RWMutex
	last *Summary
}

// New creates an Orchestrator.
func New(cfg Config, p Params) (*Orchestrator, error) {
	switch {
	case p.Sessions == nil:
		return nil, fmt.Errorf("%w: sessions", ErrMissingDependency)
	case p.Extractor == nil:
		return nil, fmt.Errorf("%w: extractor", ErrMissingDependency)
	case p.Filter == nil:
		return nil, fmt.Errorf("%w: filter", ErrMissingDependency)
	case p.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case p.Snapshots == nil:
		return nil, fmt.Errorf("%w: snapshots", ErrMissingDependency)
	case p.Tracker == nil:
		return nil, fmt.Errorf("%w: tracker", ErrMissingDependency)
	}

	if p.Logger == nil {
		p.Logger = logger.NewNop()
	}
	if p.Mirror == nil {
		p.Mirror = store.NopMirror{}
	}

	return &Orchestrator{
		cfg:       cfg.WithDefaults(),
		log:       p.Logger,
		sessions:  p.Sessions,
		extractor: p.Extractor,
		filter:    p.Filter,
		store:     p.Store,
		snapshots: p.Snapshots,
		tracker:   p.Tracker,
		mirror:    p.Mirror,
		metrics:   p.Metrics,
		now:       time.Now,
	}, nil
}

// Running reports whether a run is executing.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// LastSummary returns the summary of the most recent finished run.
func (o *Orchestrator) LastSummary() (Summary, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.last == nil {
		return Summary{}, false
	}
	return *o.last, true
}

// Run crawls every target once. Organization failures do not stop other
// organizations; they are joined into the returned error.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	summary := Summary{
		RunID:         uuid.NewString(),
		StartedAt:     o.now(),
		Organizations: make([]OrgSummary, len(o.cfg.Targets)),
	}

	log := o.log.With(logger.RunID(summary.RunID))
	ctx = logger.WithContext(ctx, log)

	log.Info("Crawl run started",
		logger.Int("organizations", len(o.cfg.Targets)),
		logger.Int("concurrency", o.cfg.Concurrency),
	)
	o.metrics.RunStarted()
	o.tracker.BeginRun()

	orgErrs := make([]error, len(o.cfg.Targets))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, target := range o.cfg.Targets {
		g.Go(func() error {
			sum, err := o.crawlOrganization(ctx, target)
			if err != nil {
				sum.Error = err.Error()
				orgErrs[i] = fmt.Errorf("organization %s: %w", target.Organization(), err)
			}
			summary.Organizations[i] = sum
			return nil
		})
	}
	_ = g.Wait()

	runErr := errors.Join(orgErrs...)

	if o.cfg.ListingsDir != "" {
		paths, err := store.WriteListings(o.cfg.ListingsDir, o.store.Records())
		if err != nil {
			log.Error("Failed to write URL listings", logger.Error(err))
			runErr = errors.Join(runErr, fmt.Errorf("write listings: %w", err))
		}
		summary.Listings = paths
	}

	summary.FinishedAt = o.now()
	o.finishRun(log, summary, runErr)

	return summary, runErr
}

func (o *Orchestrator) finishRun(log logger.Logger, summary Summary, runErr error) {
	status := statusSuccess
	switch {
	case isCancellation(runErr):
		status = statusCancelled
	case runErr != nil:
		status = statusFailed
	}

	o.metrics.RunFinished(status, summary.Duration())
	o.metrics.SetStoredRecords(o.store.Len())

	totals := summary.Totals()
	fields := []logger.Field{
		logger.String("status", status),
		logger.Int("discovered", totals.Discovered),
		logger.Int("skipped", totals.Skipped),
		logger.Int("qualified", totals.Qualified),
		logger.Int("rejected", totals.Rejected),
		logger.Int("no_data", totals.NoData),
		logger.Int("fetch_failed", totals.FetchFailed),
		logger.Int("snapshots", totals.Snapshots),
		logger.Duration("duration", summary.Duration()),
	}
	if runErr != nil {
		log.Error("Crawl run finished with errors", append(fields, logger.Error(runErr))...)
	} else {
		log.Info("Crawl run finished", fields...)
	}

	o.mu.Lock()
	o.last = &summary
	o.mu.Unlock()
}

// crawlOrganization crawls every seed of target in order. It stops at the
// first persistence error or on cancellation.
func (o *Orchestrator) crawlOrganization(ctx context.Context, target domain.CrawlTarget) (OrgSummary, error) {
	start := o.now()
	org := target.Organization()
	sum := OrgSummary{Organization: org}

	log := logger.FromContext(ctx).With(logger.Organization(org))
	log.Info("Crawling organization", logger.Int("seeds", len(target.Seeds())))

	var err error
	for _, seed := range target.Seeds() {
		if err = ctx.Err(); err != nil {
			break
		}
		sum.Seeds++
		if err = o.crawlSeed(ctx, log.With(logger.String("seed", seed)), org, seed, &sum); err != nil {
			break
		}
	}

	sum.Duration = o.now().Sub(start)
	if err != nil && !isCancellation(err) {
		log.Error("Organization aborted", logger.Error(err))
	}
	return sum, err
}

// crawlSeed fetches one seed page and processes every link on it inside a
// single fetch session.
func (o *Orchestrator) crawlSeed(ctx context.Context, log logger.Logger, org, seed string, sum *OrgSummary) error {
	session := o.sessions.Open(ctx)
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("Failed to close fetch session", logger.Error(closeErr))
		}
	}()

	page := session.FetchSeed(ctx, seed)
	o.metrics.Fetch(page.Mode.String())
	if !page.OK() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		sum.SeedFailures++
		log.Warn("Seed fetch failed",
			logger.String("kind", string(page.Kind)),
			logger.Int("status", page.Status),
			logger.Error(page.Err),
		)
		return nil
	}

	o.snapshot(log, org, seed, page.Markup, sum)

	links, err := frontier.Harvest(page.Markup, seed)
	if err != nil {
		sum.SeedFailures++
		log.Warn("Failed to harvest links", logger.Error(err))
		return nil
	}
	sum.Discovered += len(links)
	log.Info("Links discovered", logger.Int("count", len(links)))

	for _, link := range links {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if linkErr := o.processLink(ctx, session, log, org, link, sum); linkErr != nil {
			return linkErr
		}
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
