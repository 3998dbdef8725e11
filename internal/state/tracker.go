package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// Policy decides how fetch failures are remembered.
type Policy string

const (
	// PolicyMark records fetch failures durably; they are never retried.
	PolicyMark Policy = "mark"
	// PolicyRetry keeps fetch failures for the current run only.
	PolicyRetry Policy = "retry"
)

// ErrInvalidOutcome is returned when MarkProcessed receives an unknown outcome.
var ErrInvalidOutcome = errors.New("invalid link outcome")

// Tracker is the processed-URL set. Durable outcomes are written to the
// ledger before they become visible. Under PolicyRetry, fetch failures live
// in a per-run set that BeginRun clears.
type Tracker struct {
	mu        sync.Mutex
	processed map[string]struct{}
	failed    map[string]struct{}
	inflight  map[string]struct{}
	ledger    Ledger
	policy    Policy
	now       func() time.Time
}

// NewTracker creates an empty Tracker backed by ledger.
func NewTracker(ledger Ledger, policy Policy) *Tracker {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	if policy == "" {
		policy = PolicyMark
	}
	return &Tracker{
		processed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
		inflight:  make(map[string]struct{}),
		ledger:    ledger,
		policy:    policy,
		now:       time.Now,
	}
}

// Load seeds the set from the ledger and from known record URLs (the result
// store keys). Under PolicyRetry, fetch failures from earlier runs are skipped.
func (t *Tracker) Load(ctx context.Context, recordURLs []string) error {
	rows, err := t.ledger.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for url, outcome := range rows {
		if t.policy == PolicyRetry && outcome == domain.OutcomeFetchFailed {
			continue
		}
		t.processed[url] = struct{}{}
	}
	for _, url := range recordURLs {
		t.processed[url] = struct{}{}
	}

	return nil
}

// BeginRun forgets the fetch failures of the previous run so they are
// attempted again. It is a no-op under PolicyMark.
func (t *Tracker) BeginRun() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.failed)
}

// IsProcessed reports whether url reached a terminal outcome.
func (t *Tracker) IsProcessed(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.seenLocked(url)
}

func (t *Tracker) seenLocked(url string) bool {
	if _, ok := t.processed[url]; ok {
		return true
	}
	_, ok := t.failed[url]
	return ok
}

// Claim reserves url for processing. It returns false if url is already
// processed or claimed by another worker.
func (t *Tracker) Claim(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seenLocked(url) {
		return false
	}
	if _, ok := t.inflight[url]; ok {
		return false
	}
	t.inflight[url] = struct{}{}
	return true
}

// Release drops a claim without marking the URL processed.
func (t *Tracker) Release(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.inflight, url)
}

// MarkProcessed records a terminal outcome and adds url to the set. On a
// ledger error the URL stays unprocessed and its claim is kept.
func (t *Tracker) MarkProcessed(ctx context.Context, url string, outcome domain.LinkOutcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	durable := !(t.policy == PolicyRetry && outcome == domain.OutcomeFetchFailed)
	if durable {
		if err := t.ledger.Record(ctx, url, outcome, t.now()); err != nil {
			return fmt.Errorf("mark %s processed: %w", url, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if durable {
		t.processed[url] = struct{}{}
	} else {
		t.failed[url] = struct{}{}
	}
	delete(t.inflight, url)
	return nil
}

// Len returns the number of processed URLs, including this run's
// non-durable failures.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.processed) + len(t.failed)
}

// Policy returns the failure policy in effect.
func (t *Tracker) Policy() Policy {
	return t.policy
}
