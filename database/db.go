package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects and configures the storage backend.
type Config struct {
	Driver   string
	Path     string // sqlite file, ":memory:" for tests
	Postgres PostgresConfig
}

// DB wraps a connection pool and rewrites "?" placeholders for the active driver, so queries
// are written once in sqlite style.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to the configured backend and verifies the connection.
func Open(cfg Config) (*DB, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverPostgres:
		return OpenPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens a sqlite database at path. An empty path means "./database.db".
func OpenSQLite(path string) (*DB, error) {
	if path == "" {
		path = "./database.db"
	}

	memory := path == ":memory:"
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if !memory {
		dsn = "file:" + dsn + "&_journal=WAL"
	}

	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	log.Printf("Using SQLite database at %s", path)
	return &DB{DB: db, Driver: DriverSQLite}, nil
}

// Rebind converts "?" placeholders to "$1", "$2", ... for Postgres. Question marks inside
// single-quoted literals are left alone.
func (db *DB) Rebind(query string) string {
	return rebind(db.Driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}

// Tx is a database transaction with the same placeholder rewriting as DB.
type Tx struct {
	*sql.Tx
	driver string
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, rebind(tx.driver, query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, rebind(tx.driver, query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, rebind(tx.driver, query), args...)
}

// ForUpdate adds a row lock to a SELECT so a read-modify-write holds the row until commit.
// SQLite has no row locks and already serializes writers, so the query is returned as is.
func (tx *Tx) ForUpdate(query string) string {
	if tx.driver != DriverPostgres {
		return query
	}
	return strings.TrimRight(query, " \t\n;") + " FOR UPDATE"
}

// WithTx runs fn in a transaction, committing when fn returns nil and rolling back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&Tx{Tx: sqlTx, driver: db.Driver}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Now returns the current UTC time truncated to seconds, matching what both drivers store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
