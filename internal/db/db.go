package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// createTablesSQL is the raw-tier DDL. Foreign keys back up the
// locations-before-dependents ordering invariant at the storage layer.
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS locations (
    id INTEGER PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    country_code VARCHAR(2),
    country_name VARCHAR(255),
    city VARCHAR(255),
    coordinates JSONB,
    timezone VARCHAR(100),
    owner_name VARCHAR(255),
    provider_name VARCHAR(255),
    is_mobile BOOLEAN NOT NULL DEFAULT FALSE,
    is_monitor BOOLEAN NOT NULL DEFAULT FALSE,
    sensor_ids INTEGER[],
    last_update TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sensors (
    id INTEGER PRIMARY KEY,
    location_id INTEGER NOT NULL REFERENCES locations(id),
    name VARCHAR(255),
    parameter_name VARCHAR(100),
    parameter_display_name VARCHAR(100),
    units VARCHAR(50),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS measurements (
    id BIGSERIAL PRIMARY KEY,
    location_id INTEGER NOT NULL REFERENCES locations(id),
    sensor_id INTEGER,
    value DOUBLE PRECISION NOT NULL,
    datetime TIMESTAMPTZ NOT NULL,
    coordinates JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS measurements_datetime_idx
    ON measurements (datetime);
CREATE INDEX IF NOT EXISTS measurements_sensor_datetime_idx
    ON measurements (sensor_id, datetime);

CREATE TABLE IF NOT EXISTS etl_runs (
    id UUID PRIMARY KEY,
    started_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    status VARCHAR(20) NOT NULL,
    locations INTEGER NOT NULL DEFAULT 0,
    sensors INTEGER NOT NULL DEFAULT 0,
    measurements INTEGER NOT NULL DEFAULT 0,
    message TEXT
);
`

// Connect opens a pgx pool against the given database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, databaseURL)
}

// InitSchema applies the raw-tier DDL. Idempotent.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createTablesSQL)
	return err
}
