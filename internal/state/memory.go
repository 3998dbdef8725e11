package state

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// MemoryLedger keeps outcomes in process memory. Nothing survives a restart.
type MemoryLedger struct {
	mu   sync.Mutex
	rows map[string]domain.LinkOutcome
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: make(map[string]domain.LinkOutcome)}
}

func (l *MemoryLedger) Load(context.Context) (map[string]domain.LinkOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return maps.Clone(l.rows), nil
}

func (l *MemoryLedger) Record(_ context.Context, url string, outcome domain.LinkOutcome, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rows[url] = outcome
	return nil
}

func (l *MemoryLedger) Close() error {
	return nil
}
