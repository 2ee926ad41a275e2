// Package database opens the relational store used for entities and events.
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite) share one database/sql
// code path; queries are written with "?" placeholders and rebound per driver.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"whereis/internal/core/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	// DriverPostgres selects PostgreSQL.
	DriverPostgres = "postgres"
	// DriverSQLite selects SQLite.
	DriverSQLite = "sqlite"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// DB wraps a *sql.DB with the dialect details of its driver.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the database described by cfg and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		dsn    string
		schema string
	)

	switch cfg.Driver {
	case DriverPostgres:
		dsn = cfg.URL
		schema = postgresSchema
	case DriverSQLite:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		dsn = sqliteDSN(cfg.URL)
		schema = sqliteSchema
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Driver, err)
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{DB: sqlDB, driver: cfg.Driver}, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// Driver returns the driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites "?" placeholders into the driver's syntax.
func (db *DB) Rebind(query string) string {
	return Rebind(db.driver, query)
}

// LockClause returns the row-locking suffix for SELECT statements inside a
// transaction. SQLite serializes writers itself and returns "".
func (db *DB) LockClause() string {
	if db.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// Rebind rewrites "?" placeholders into "$n" for PostgreSQL. Queries must not
// contain literal question marks.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
