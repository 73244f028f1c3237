// Package store persists parse runs to Postgres. Persistence is strictly
// optional: the pipeline only touches this package when DATABASE_URL is
// configured.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// One row per source PDF, the latest run winning; everything beyond the
// upsert key lives in the JSONB document.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS parse_runs (
	source_pdf TEXT PRIMARY KEY,
	run_id TEXT,
	run_json JSONB,
	updated_at TIMESTAMPTZ
);`

// InitDB opens the connection pool from the DATABASE_URL environment
// variable and ensures the parse_runs table exists. Batch runs write one
// small row per filing, so the pool stays small and idle connections are
// recycled between filings.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}
		config.MaxConns = 4
		config.MaxConnIdleTime = 5 * time.Minute

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		if _, execErr := pool.Exec(ctx, schemaDDL); execErr != nil {
			err = fmt.Errorf("failed to ensure parse_runs schema: %w", execErr)
		}
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
