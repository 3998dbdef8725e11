package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

const (
	// pingTimeout bounds the connection check on open
	pingTimeout = 5 * time.Second

	upsertProcessedURL = `INSERT INTO processed_urls (url, outcome, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET outcome = excluded.outcome, processed_at = excluded.processed_at`

	selectProcessedURLs = `SELECT url, outcome FROM processed_urls`
)

// processedRow is one row of processed_urls.
type processedRow struct {
	URL     string `db:"url"`
	Outcome string `db:"outcome"`
}

// SQLLedger stores outcomes in a processed_urls table through sqlx.
type SQLLedger struct {
	db *sqlx.DB
}

// OpenSQL connects to driver ("sqlite" or "postgres") and applies pending
// schema migrations.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLLedger, error) {
	if driver == DriverSQLite {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, pingErr)
	}

	ledger := NewSQLLedger(db)
	if migrateErr := ledger.Migrate(ctx); migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	return ledger, nil
}

// NewSQLLedger wraps an existing connection. Call Migrate before use on a fresh database.
func NewSQLLedger(db *sqlx.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

// Load returns every recorded URL with its outcome.
func (l *SQLLedger) Load(ctx context.Context) (map[string]domain.LinkOutcome, error) {
	var rows []processedRow
	if err := l.db.SelectContext(ctx, &rows, selectProcessedURLs); err != nil {
		return nil, fmt.Errorf("select processed urls: %w", err)
	}

	out := make(map[string]domain.LinkOutcome, len(rows))
	for _, row := range rows {
		out[row.URL] = domain.LinkOutcome(row.Outcome)
	}
	return out, nil
}

// Record upserts the outcome for url.
func (l *SQLLedger) Record(ctx context.Context, url string, outcome domain.LinkOutcome, at time.Time) error {
	query := l.db.Rebind(upsertProcessedURL)
	if _, err := l.db.ExecContext(ctx, query, url, string(outcome), at.UTC()); err != nil {
		return fmt.Errorf("record processed url: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}

// ensureSQLiteDir creates the directory holding a file-backed SQLite database.
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory %s: %w", dir, err)
	}
	return nil
}
