package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/extractor"
	"github.com/jonesrussell/newsroom-crawler/internal/fetcher"
	"github.com/jonesrussell/newsroom-crawler/internal/filter"
	"github.com/jonesrussell/newsroom-crawler/internal/metrics"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
	"github.com/jonesrussell/newsroom-crawler/internal/state"
	"github.com/jonesrussell/newsroom-crawler/internal/store"
)

var (
	cutoff     = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedClock = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	errDisk    = errors.New("disk full")
)

// fakeWeb serves canned pages to fetch sessions and records every fetch.
type fakeWeb struct {
	mu       sync.Mutex
	pages    map[string]string
	fetches  []string
	opened   int
	closed   int
	seedGate chan struct{}
}

func newFakeWeb(pages map[string]string) *fakeWeb {
	return &fakeWeb{pages: pages}
}

func (w *fakeWeb) Open(context.Context) fetcher.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened++
	return &fakeSession{web: w}
}

func (w *fakeWeb) get(url string) fetcher.Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fetches = append(w.fetches, url)
	markup, ok := w.pages[url]
	if !ok {
		return fetcher.Outcome{URL: url, Mode: fetcher.ModeFailed, Kind: fetcher.KindStatus, Status: 404, Err: fetcher.ErrUnexpectedStatus}
	}
	return fetcher.Outcome{URL: url, Markup: []byte(markup), Mode: fetcher.ModePrimary, Status: 200}
}

func (w *fakeWeb) publish(url, markup string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[url] = markup
}

func (w *fakeWeb) fetched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.fetches...)
}

func (w *fakeWeb) count(url string) int {
	n := 0
	for _, f := range w.fetched() {
		if f == url {
			n++
		}
	}
	return n
}

type fakeSession struct {
	web *fakeWeb
}

func (s *fakeSession) FetchSeed(ctx context.Context, url string) fetcher.Outcome {
	if s.web.seedGate != nil {
		select {
		case <-s.web.seedGate:
		case <-ctx.Done():
			return fetcher.Outcome{URL: url, Mode: fetcher.ModeFailed, Kind: fetcher.KindTimeout, Err: ctx.Err()}
		}
	}
	return s.web.get(url)
}

func (s *fakeSession) Fetch(_ context.Context, url string) fetcher.Outcome {
	return s.web.get(url)
}

func (s *fakeSession) Close() error {
	s.web.mu.Lock()
	defer s.web.mu.Unlock()
	s.web.closed++
	return nil
}

// failingStore fails every append after the first okAppends.
type failingStore struct {
	*store.ResultStore
	mu        sync.Mutex
	okAppends int
}

func (s *failingStore) Append(r domain.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.okAppends == 0 {
		return errDisk
	}
	s.okAppends--
	return s.ResultStore.Append(r)
}

func listing(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, l := range links {
		fmt.Fprintf(&b, `<li><a href="%s">link</a></li>`, l)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func article(title, date, body string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><time>%s</time><article><p>%s</p></article></body></html>`, title, date, body)
}

const noTitle = `<html><body><div>nothing to see</div></body></html>`

type harness struct {
	dir       string
	web       *fakeWeb
	store     *store.ResultStore
	snapshots *store.SnapshotWriter
	ledger    *state.MemoryLedger
	tracker   *state.Tracker
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T, pages map[string]string) *harness {
	t.Helper()

	dir := t.TempDir()
	ledger := state.NewMemoryLedger()
	return &harness{
		dir:       dir,
		web:       newFakeWeb(pages),
		store:     store.NewResultStore(filepath.Join(dir, "results.json"), filepath.Join(dir, "results.csv")),
		snapshots: store.NewSnapshotWriter(filepath.Join(dir, "webpage_content")),
		ledger:    ledger,
		tracker:   state.NewTracker(ledger, state.PolicyMark),
		metrics:   metrics.New(),
	}
}

func (h *harness) orchestrator(t *testing.T, targets []domain.CrawlTarget, records orchestrator.RecordStore) *orchestrator.Orchestrator {
	t.Helper()

	return h.orchestratorWith(t, orchestrator.Config{Targets: targets}, records)
}

func (h *harness) orchestratorWith(t *testing.T, cfg orchestrator.Config, records orchestrator.RecordStore) *orchestrator.Orchestrator {
	t.Helper()

	if records == nil {
		records = h.store
	}
	cfg.ListingsDir = filepath.Join(h.dir, "url_files")
	o, err := orchestrator.New(cfg, orchestrator.Params{
		Sessions:  h.web,
		Extractor: extractor.New(extractor.WithClock(fixedClock)),
		Filter:    filter.New([]string{"partnership", "strategic alliance"}, cutoff),
		Store:     records,
		Snapshots: h.snapshots,
		Tracker:   h.tracker,
		Metrics:   h.metrics,
	})
	require.NoError(t, err)
	return o
}

func acmePages() map[string]string {
	return map[string]string{
		"https://acme.example/news": listing(
			"/news/alliance",
			"/news/old",
			"/news/unrelated",
			"/news/empty",
			"/news/missing",
			"#top",
			"mailto:press@acme.example",
		),
		"https://acme.example/news/alliance":  article("Acme and Beta announce strategic alliance", "2023-05-01", "A new chapter."),
		"https://acme.example/news/old":       article("Acme partnership", "2020-12-31", "Old news."),
		"https://acme.example/news/unrelated": article("Quarterly results", "2023-05-01", "Revenue grew."),
		"https://acme.example/news/empty":     noTitle,
	}
}

func TestRun_ProcessesEveryOutcome(t *testing.T) {
	t.Parallel()

	h := newHarness(t, acmePages())
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
	}, nil)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Organizations, 1)
	acme := summary.Organizations[0]
	assert.Equal(t, 5, acme.Discovered)
	assert.Equal(t, 1, acme.Qualified)
	assert.Equal(t, 2, acme.Rejected)
	assert.Equal(t, 1, acme.NoData)
	assert.Equal(t, 1, acme.FetchFailed)
	assert.Equal(t, 0, acme.Skipped)
	assert.Equal(t, 5, acme.Snapshots, "seed page plus every fetched link")
	assert.NotEmpty(t, summary.RunID)

	records := h.store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, domain.ArticleRecord{
		Organization:     "Acme",
		Title:            "Acme and Beta announce strategic alliance",
		URL:              "https://acme.example/news/alliance",
		PublishedDateRaw: "2023-05-01",
		MatchedTerms:     []string{"strategic alliance"},
		BodyExcerpt:      "A new chapter.",
	}, records[0])

	assert.True(t, h.snapshots.Exists("Acme", "https://acme.example/news/old"), "rejected pages are snapshotted too")
	assert.FileExists(t, filepath.Join(h.dir, "url_files", "Acme_urls.txt"))
	assert.FileExists(t, filepath.Join(h.dir, "url_files", store.AllURLsFile))

	rows, err := h.ledger.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFetchFailed, rows["https://acme.example/news/missing"])
	assert.Equal(t, domain.OutcomeQualified, rows["https://acme.example/news/alliance"])

	assert.Equal(t, h.web.opened, h.web.closed, "every session is closed")

	last, ok := o.LastSummary()
	require.True(t, ok)
	assert.Equal(t, summary.RunID, last.RunID)
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, acmePages())
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
	}, nil)

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	firstFetches := len(h.web.fetched())

	second, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, firstFetches+1, len(h.web.fetched()), "only the seed is fetched again")
	assert.Equal(t, 5, second.Organizations[0].Skipped)
	assert.Equal(t, 0, second.Organizations[0].Qualified)
	assert.Equal(t, 1, h.store.Len())
}

func TestRun_SharedLinkIsFetchedOnce(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://acme.example/news": listing("https://shared.example/story"),
		"https://beta.example/news": listing("https://shared.example/story"),
		"https://shared.example/story": article(
			"Acme and Beta partnership", "2022-02-02", "Joint announcement."),
	}
	h := newHarness(t, pages)
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
		domain.NewCrawlTarget("Beta", []string{"https://beta.example/news"}),
	}, nil)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, h.web.count("https://shared.example/story"))
	assert.Equal(t, 1, summary.Totals().Qualified)
	assert.Equal(t, 1, summary.Totals().Skipped)
	assert.Equal(t, "Acme", h.store.Records()[0].Organization)
}

func TestRun_ParallelOrganizationsShareLinks(t *testing.T) {
	t.Parallel()

	const story = "https://shared.example/story"
	pages := map[string]string{
		story: article("Joint partnership", "2022-02-02", "Joint announcement."),
	}
	var targets []domain.CrawlTarget
	for _, org := range []string{"Acme", "Beta", "Gamma", "Delta"} {
		seed := "https://" + strings.ToLower(org) + ".example/news"
		pages[seed] = listing(story, "/own")
		pages[seed[:len(seed)-len("news")]+"own"] = article(org+" results", "2022-03-03", "No match.")
		targets = append(targets, domain.NewCrawlTarget(org, []string{seed}))
	}

	h := newHarness(t, pages)
	o := h.orchestratorWith(t, orchestrator.Config{Targets: targets, Concurrency: 4}, nil)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, h.web.count(story))
	assert.Equal(t, 1, h.store.Len())
	assert.Equal(t, story, h.store.Records()[0].URL)

	totals := summary.Totals()
	assert.Equal(t, 1, totals.Qualified)
	assert.Equal(t, 3, totals.Skipped)
	assert.Equal(t, 4, totals.Rejected, "each organization's own page is processed")
	assert.Equal(t, h.web.opened, h.web.closed)
}

func TestRun_RetryPolicyRetriesFailuresNextRun(t *testing.T) {
	t.Parallel()

	const flaky = "https://acme.example/news/flaky"
	h := newHarness(t, map[string]string{
		"https://acme.example/news": listing("/news/flaky"),
	})
	h.tracker = state.NewTracker(h.ledger, state.PolicyRetry)
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
	}, nil)

	first, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Organizations[0].FetchFailed)

	h.web.publish(flaky, article("Acme partnership", "2023-01-01", "Back online."))

	second, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, h.web.count(flaky))
	assert.Equal(t, 0, second.Organizations[0].Skipped)
	assert.Equal(t, 1, second.Organizations[0].Qualified)
	assert.True(t, h.store.Has(flaky))
}

func TestRun_FetchFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	pages := acmePages()
	pages["https://beta.example/news"] = listing("/partners/1")
	pages["https://beta.example/partners/1"] = article("Beta partnership", "2021-01-01", "Boundary date.")
	h := newHarness(t, pages)

	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Down", []string{"https://down.example/news"}),
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
		domain.NewCrawlTarget("Beta", []string{"https://beta.example/news"}),
	}, nil)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Organizations[0].SeedFailures)
	assert.Equal(t, 1, summary.Organizations[1].FetchFailed)
	assert.Equal(t, 1, summary.Organizations[1].Qualified)
	assert.Equal(t, 1, summary.Organizations[2].Qualified, "2021-01-01 is on the cutoff")
	assert.Equal(t, 2, h.store.Len())
}

func TestRun_StoreErrorAbortsOrganizationOnly(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://acme.example/news": listing("/a", "/b"),
		"https://acme.example/a":    article("Acme partnership one", "2023-01-01", "First."),
		"https://acme.example/b":    article("Acme partnership two", "2023-01-02", "Second."),
		"https://beta.example/news": listing("/c"),
		"https://beta.example/c":    article("Beta partnership", "2023-01-03", "Third."),
	}
	h := newHarness(t, pages)
	records := &failingStore{ResultStore: h.store, okAppends: 0}

	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
		domain.NewCrawlTarget("Beta", []string{"https://beta.example/news"}),
	}, records)

	summary, err := o.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "organization Acme")
	assert.Contains(t, err.Error(), "organization Beta")

	assert.Equal(t, 0, h.web.count("https://acme.example/b"), "organization stops at the first store error")
	assert.Equal(t, 1, h.web.count("https://beta.example/c"), "other organizations still run")
	assert.NotEmpty(t, summary.Organizations[0].Error)

	assert.False(t, h.tracker.IsProcessed("https://acme.example/a"), "failed append leaves the URL for the next run")
}

func TestRun_ResumesAfterCrash(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://acme.example/news": listing("/1", "/2", "/3", "/4"),
		"https://acme.example/1":    article("Partnership one", "2023-01-01", "One."),
		"https://acme.example/2":    article("Partnership two", "2023-01-02", "Two."),
		"https://acme.example/3":    article("Partnership three", "2023-01-03", "Three."),
		"https://acme.example/4":    article("Partnership four", "2023-01-04", "Four."),
	}
	targets := []domain.CrawlTarget{domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"})}

	h := newHarness(t, pages)
	crashing := &failingStore{ResultStore: h.store, okAppends: 2}
	_, err := h.orchestrator(t, targets, crashing).Run(context.Background())
	require.ErrorIs(t, err, errDisk)
	require.Equal(t, 2, h.store.Len())

	// Restart: reload the store from disk and rebuild the tracker from the ledger.
	reloaded := store.NewResultStore(filepath.Join(h.dir, "results.json"), filepath.Join(h.dir, "results.csv"))
	_, err = reloaded.Load()
	require.NoError(t, err)

	h.store = reloaded
	h.tracker = state.NewTracker(h.ledger, state.PolicyMark)
	require.NoError(t, h.tracker.Load(context.Background(), reloaded.URLs()))

	summary, err := h.orchestrator(t, targets, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Organizations[0].Skipped)
	assert.Equal(t, 2, summary.Organizations[0].Qualified)
	assert.Equal(t, 1, h.web.count("https://acme.example/1"))
	assert.Equal(t, 2, h.web.count("https://acme.example/3"), "the failed record is retried")
	assert.Equal(t, []string{
		"https://acme.example/1",
		"https://acme.example/2",
		"https://acme.example/3",
		"https://acme.example/4",
	}, reloaded.URLs())
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	h := newHarness(t, acmePages())
	h.web.seedGate = make(chan struct{})
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
	}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, o.Running, time.Second, time.Millisecond)

	_, err := o.Run(context.Background())
	require.ErrorIs(t, err, orchestrator.ErrRunInProgress)

	_, err = o.Backfill(context.Background())
	require.ErrorIs(t, err, orchestrator.ErrRunInProgress)

	close(h.web.seedGate)
	require.NoError(t, <-done)
	assert.False(t, o.Running())
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, acmePages())
	o := h.orchestrator(t, []domain.CrawlTarget{
		domain.NewCrawlTarget("Acme", []string{"https://acme.example/news"}),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.web.fetched())
	assert.Equal(t, 0, h.tracker.Len())
}

func TestBackfill_SnapshotsMissingRecords(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"https://acme.example/1": article("Partnership", "2023-01-01", "One."),
	})
	require.NoError(t, h.store.Append(domain.ArticleRecord{Organization: "Acme", URL: "https://acme.example/1"}))
	require.NoError(t, h.store.Append(domain.ArticleRecord{Organization: "Acme", URL: "https://acme.example/gone"}))

	o := h.orchestrator(t, nil, nil)

	sum, err := o.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.BackfillSummary{Checked: 2, Written: 1, Failed: 1}, sum)
	assert.True(t, h.snapshots.Exists("Acme", "https://acme.example/1"))

	again, err := o.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Written)
	assert.Equal(t, 1, h.web.count("https://acme.example/1"), "existing snapshots are not refetched")
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := orchestrator.New(orchestrator.Config{}, orchestrator.Params{})
	require.ErrorIs(t, err, orchestrator.ErrMissingDependency)
}

func TestSummary_Totals(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := orchestrator.Summary{
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		Organizations: []orchestrator.OrgSummary{
			{Organization: "A", Discovered: 3, Qualified: 1, Rejected: 2},
			{Organization: "B", Discovered: 2, NoData: 1, FetchFailed: 1},
		},
	}

	totals := s.Totals()
	assert.Equal(t, 5, totals.Discovered)
	assert.Equal(t, 1, totals.Qualified)
	assert.Equal(t, 2, totals.Rejected)
	assert.Equal(t, 1, totals.NoData)
	assert.Equal(t, 1, totals.FetchFailed)
	assert.Equal(t, time.Minute, s.Duration())
}
