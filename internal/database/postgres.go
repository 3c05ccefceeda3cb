package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rusithink-backend/internal/config"
	"rusithink-backend/pkg/constants"
)

// PostgresDB wraps a pgx connection pool
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgresDB creates a new Postgres connection pool
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = constants.MaxConnLifetime
	poolConfig.MaxConnIdleTime = constants.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = constants.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Close closes the connection pool
func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// Ping tests the database connection
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// EnsureSchema creates the application tables when they do not exist yet.
// The service owns its schema; there is no separate migration step.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id        UUID PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			role           TEXT NOT NULL,
			password_hash  TEXT NOT NULL,
			company_name   TEXT,
			phone          TEXT,
			address        TEXT,
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS users_role_idx ON users (role)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id        UUID PRIMARY KEY,
			owner_id       UUID NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
			title          TEXT NOT NULL,
			description    TEXT,
			due_datetime   TIMESTAMPTZ NOT NULL,
			project_price  NUMERIC(20, 4),
			status         TEXT NOT NULL,
			priority       TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_owner_idx ON tasks (owner_id)`,
		`CREATE INDEX IF NOT EXISTS tasks_created_idx ON tasks (created_at)`,
		`CREATE TABLE IF NOT EXISTS client_analytics (
			client_id                UUID PRIMARY KEY,
			total_projects           INT NOT NULL,
			completed_projects       INT NOT NULL,
			pending_projects         INT NOT NULL,
			total_spent              NUMERIC(20, 4) NOT NULL,
			average_project_value    NUMERIC(20, 4) NOT NULL,
			project_completion_rate  DOUBLE PRECISION NOT NULL,
			monthly_spending         JSONB NOT NULL,
			calculated_at            TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_analytics (
			month_year               TEXT PRIMARY KEY,
			total_revenue            NUMERIC(20, 4) NOT NULL,
			total_projects           INT NOT NULL,
			completed_projects       INT NOT NULL,
			pending_projects         INT NOT NULL,
			new_clients              INT NOT NULL,
			active_clients           INT NOT NULL,
			average_project_value    NUMERIC(20, 4) NOT NULL,
			project_completion_rate  DOUBLE PRECISION NOT NULL,
			revenue_by_client        JSONB NOT NULL,
			calculated_at            TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
