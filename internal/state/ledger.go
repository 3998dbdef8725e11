// Package state tracks which URLs have already been processed, in memory for
// the current run and durably across runs through a ledger.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// Ledger drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown ledger driver")

// Ledger durably records terminal URL outcomes.
type Ledger interface {
	// Load returns every recorded URL with its latest outcome.
	Load(ctx context.Context) (map[string]domain.LinkOutcome, error)
	// Record upserts the outcome for url.
	Record(ctx context.Context, url string, outcome domain.LinkOutcome, at time.Time) error
	// Close releases the ledger's resources.
	Close() error
}

// Config selects and configures a ledger backend.
type Config struct {
	Driver string
	DSN    string
	Redis  RedisConfig
}

// Open creates the ledger selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Ledger, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, cfg.Driver, cfg.DSN)
	case DriverRedis:
		return OpenRedis(ctx, cfg.Redis)
	case DriverMemory, "":
		return NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
