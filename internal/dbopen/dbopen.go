// Package dbopen opens the bun database named by the configuration.
package dbopen

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-pieshop-admin/config"
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	var dialect schema.Dialect
	switch cfg.Driver {
	case config.DriverSQLite:
		dialect = sqlitedialect.New()
	case config.DriverPostgres:
		dialect = pgdialect.New()
	default:
		return nil, fmt.Errorf("dbopen: unsupported driver %q", cfg.Driver)
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer.
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, dialect)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}
