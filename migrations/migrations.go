// Package migrations applies the embedded schema migrations for the active database driver.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var files embed.FS

// migrator bundles a migrate instance with the cleanup that is safe for a shared *sql.DB.
type migrator struct {
	*migrate.Migrate
	release func()
}

func newMigrator(db *database.DB) (*migrator, error) {
	var (
		dir    string
		driver migratedb.Driver
		err    error
	)
	switch db.Driver {
	case database.DriverSQLite:
		dir = "sql/sqlite"
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case database.DriverPostgres:
		dir = "sql/postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		return nil, fmt.Errorf("no migrations for driver %q", db.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.Driver, driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	release := func() {
		src.Close()
		// The sqlite driver's Close closes the *sql.DB the rest of the app is using; the
		// postgres driver only releases the connection it borrowed.
		if db.Driver == database.DriverPostgres {
			driver.Close()
		}
	}
	return &migrator{Migrate: m, release: release}, nil
}

// Up applies every pending migration.
func Up(db *database.DB) error {
	log.Println("Running database migrations...")

	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer m.release()

	if err := m.Migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Down rolls back the given number of migrations.
func Down(db *database.DB, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer m.release()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version. version is 0 when nothing has been applied.
func Version(db *database.DB) (version uint, dirty bool, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	defer m.release()

	version, dirty, err = m.Migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
