// Package storage is the ambient persistence layer (§4.12): a thin jackc/pgx/v5 + pgxpool
// repository, migrated with pressly/goose/v3 embedded SQL migrations, batching pgx.Batch
// upserts into a minute_bars table the way the reference repository batches its upserts.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver goose uses
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration to the database at databaseURL. Uses
// database/sql (via the pgx stdlib adapter) since goose drives migrations through that
// interface, while the rest of the repository uses the native pgx/pgxpool interface for
// batched operations.
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("storage: opening migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("storage: setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("storage: running migrations: %w", err)
	}
	return nil
}

// Connect opens a pgxpool connection pool to databaseURL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: pinging: %w", err)
	}
	return pool, nil
}
