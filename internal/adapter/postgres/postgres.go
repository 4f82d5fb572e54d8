// Package postgres implements the row repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"technowear/internal/domain"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

var _ domain.GarmentRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.EcoImpactRepository = (*DB)(nil)
var _ domain.HealthMetricRepository = (*DB)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS garments (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			garment_type TEXT NOT NULL CHECK(garment_type IN ('shirt','shorts','jacket','pants','shoes','other')),
			bluetooth_id TEXT,
			qr_code TEXT,
			is_paired BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			CHECK (bluetooth_id IS NULL OR qr_code IS NULL)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_garments_user_created ON garments(user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS fitness_goals (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			target_value BIGINT NOT NULL,
			current_value BIGINT NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			goal_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fitness_goals_user_created ON fitness_goals(user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS eco_impact (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			month_year TEXT NOT NULL,
			co2_absorbed_grams DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, month_year)
		);`,
		`CREATE TABLE IF NOT EXISTS health_metrics (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			garment_id TEXT,
			heart_rate DOUBLE PRECISION NOT NULL,
			breathing_rate DOUBLE PRECISION NOT NULL,
			stress_level DOUBLE PRECISION NOT NULL,
			sleep_quality DOUBLE PRECISION NOT NULL,
			recovery_score DOUBLE PRECISION NOT NULL,
			posture_status TEXT NOT NULL,
			body_temperature DOUBLE PRECISION NOT NULL,
			steps BIGINT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_health_metrics_user_recorded ON health_metrics(user_id, recorded_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
