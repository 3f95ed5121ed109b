package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// ConnectPostgres opens a pgx pool, pings it and makes sure the schema exists.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	log.Infof("[database][postgres] connected")

	if err := EnsurePostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsurePostgresSchema creates the tables and indexes used by the Postgres
// repositories when they are missing.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS service_requests (
			id               TEXT PRIMARY KEY,
			client_id        TEXT NOT NULL,
			category         TEXT NOT NULL,
			description      TEXT NOT NULL,
			location         TEXT NOT NULL,
			desired_deadline TEXT NOT NULL DEFAULT '',
			additional_info  TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL CHECK (status IN ('awaiting', 'with_quotes', 'closed', 'cancelled')),
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_service_requests_client ON service_requests(client_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_service_requests_open ON service_requests(category, created_at DESC) WHERE status IN ('awaiting', 'with_quotes')`,
		`CREATE TABLE IF NOT EXISTS quotes (
			id                 TEXT PRIMARY KEY,
			service_request_id TEXT NOT NULL REFERENCES service_requests(id) ON DELETE CASCADE,
			provider_id        TEXT NOT NULL,
			min_price          DOUBLE PRECISION NOT NULL,
			suggested_price    DOUBLE PRECISION NOT NULL,
			max_price          DOUBLE PRECISION NOT NULL,
			predicted_category TEXT NOT NULL DEFAULT '',
			proposed_value     DOUBLE PRECISION NOT NULL CHECK (proposed_value > 0),
			execution_deadline TEXT NOT NULL,
			remarks            TEXT NOT NULL DEFAULT '',
			conditions         TEXT NOT NULL DEFAULT '',
			status             TEXT NOT NULL CHECK (status IN ('awaiting', 'accepted', 'rejected', 'completed')),
			started_at         TIMESTAMPTZ NULL,
			finished_at        TIMESTAMPTZ NULL,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_request ON quotes(service_request_id, proposed_value)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_provider ON quotes(provider_id, created_at DESC)`,
		// at most one accepted or completed quote per request
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_quotes_single_winner ON quotes(service_request_id) WHERE status IN ('accepted', 'completed')`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	log.Infof("[database][postgres] schema ensured")
	return nil
}
