// Package db opens the SQL database behind the verdict and saved-search
// stores and applies embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	entdialect "entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and migration set.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

//go:embed migrations
var migrations embed.FS

// Open connects using the pgx stdlib driver for Postgres or modernc's pure-Go
// driver for SQLite.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	var driver string
	switch dialect {
	case Postgres:
		driver = "pgx"
	case SQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("db: unsupported dialect %q", dialect)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("db: dsn is required")
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; avoids SQLITE_BUSY under concurrent upserts.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db: ping %s: %w", dialect, err)
	}
	return conn, nil
}

// Migrate applies every pending migration for dialect.
func Migrate(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	var gd goose.Dialect
	switch dialect {
	case Postgres:
		gd = goose.DialectPostgres
	case SQLite:
		gd = goose.DialectSQLite3
	default:
		return fmt.Errorf("db: unsupported dialect %q", dialect)
	}
	fsys, err := fs.Sub(migrations, "migrations/"+string(dialect))
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gd, conn, fsys)
	if err != nil {
		return fmt.Errorf("db: migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

// Builder returns an ent statement builder for d. It quotes identifiers and
// numbers placeholders ($n for Postgres, ? for SQLite).
func (d Dialect) Builder() *entsql.DialectBuilder {
	if d == Postgres {
		return entsql.Dialect(entdialect.Postgres)
	}
	return entsql.Dialect(entdialect.SQLite)
}
