package state

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsTable tracks the applied schema version.
const migrationsTable = "processed_urls_migrations"

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies pending schema migrations for the ledger's driver.
func (l *SQLLedger) Migrate(ctx context.Context) error {
	driver := l.db.DriverName()

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", driver, err)
	}

	target, release, err := l.migrationTarget(ctx, driver)
	if err != nil {
		return err
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s ledger: %w", driver, err)
	}
	return nil
}

// SchemaVersion returns the applied migration version. A fresh database
// reports version 0.
func (l *SQLLedger) SchemaVersion(ctx context.Context) (uint, bool, error) {
	driver := l.db.DriverName()

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return 0, false, fmt.Errorf("load %s migrations: %w", driver, err)
	}

	target, release, err := l.migrationTarget(ctx, driver)
	if err != nil {
		return 0, false, err
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return 0, false, fmt.Errorf("create migrator: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get schema version: %w", err)
	}
	return version, dirty, nil
}

// migrationTarget wraps the ledger's pool without handing ownership to the
// migrator; release frees anything it borrowed.
func (l *SQLLedger) migrationTarget(ctx context.Context, driver string) (database.Driver, func(), error) {
	switch driver {
	case DriverSQLite:
		target, err := sqlite.WithInstance(l.db.DB, &sqlite.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return nil, nil, fmt.Errorf("create sqlite migration driver: %w", err)
		}
		return target, func() {}, nil
	case DriverPostgres:
		conn, err := l.db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
		}
		target, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: migrationsTable})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("create postgres migration driver: %w", err)
		}
		return target, func() { _ = conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
