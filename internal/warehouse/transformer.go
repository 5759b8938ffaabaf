// Package warehouse derives the star-schema tier from the raw tables. It is
// invoked as one opaque step after raw ingestion commits; the ingestion
// pipeline only depends on this package's entry point, not its schema.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var dimensionDDL = []string{
	`CREATE TABLE IF NOT EXISTS dim_locations (
        location_key SERIAL PRIMARY KEY,
        location_id INTEGER UNIQUE NOT NULL,
        location_name VARCHAR(255),
        city VARCHAR(255),
        country_code VARCHAR(2),
        country_name VARCHAR(255),
        latitude DECIMAL(9,6),
        longitude DECIMAL(9,6),
        is_mobile BOOLEAN,
        is_monitor BOOLEAN,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS dim_parameters (
        parameter_key SERIAL PRIMARY KEY,
        parameter_name VARCHAR(100) UNIQUE NOT NULL,
        display_name VARCHAR(100),
        preferred_unit VARCHAR(50),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS dim_time (
        time_key SERIAL PRIMARY KEY,
        full_date DATE NOT NULL,
        year INTEGER,
        quarter INTEGER,
        month INTEGER,
        day INTEGER,
        hour INTEGER,
        is_weekend BOOLEAN,
        UNIQUE (full_date, hour)
    )`,
	`CREATE TABLE IF NOT EXISTS fact_air_quality (
        fact_key BIGSERIAL PRIMARY KEY,
        measurement_id BIGINT UNIQUE NOT NULL,
        location_key INTEGER NOT NULL REFERENCES dim_locations(location_key),
        parameter_key INTEGER REFERENCES dim_parameters(parameter_key),
        time_key INTEGER NOT NULL REFERENCES dim_time(time_key),
        sensor_id INTEGER,
        value DOUBLE PRECISION NOT NULL
    )`,
}

var populationSQL = []string{
	`INSERT INTO dim_locations (
        location_id, location_name, city, country_code, country_name,
        latitude, longitude, is_mobile, is_monitor
    )
    SELECT id, name, city, country_code, country_name,
           (coordinates->>'latitude')::DECIMAL(9,6),
           (coordinates->>'longitude')::DECIMAL(9,6),
           is_mobile, is_monitor
    FROM locations
    ON CONFLICT (location_id) DO UPDATE SET
        location_name = EXCLUDED.location_name,
        city = EXCLUDED.city,
        country_code = EXCLUDED.country_code,
        country_name = EXCLUDED.country_name,
        latitude = EXCLUDED.latitude,
        longitude = EXCLUDED.longitude,
        is_mobile = EXCLUDED.is_mobile,
        is_monitor = EXCLUDED.is_monitor`,
	`INSERT INTO dim_parameters (parameter_name, display_name, preferred_unit)
    SELECT DISTINCT ON (parameter_name) parameter_name, parameter_display_name, units
    FROM sensors
    WHERE parameter_name IS NOT NULL
    ORDER BY parameter_name, id
    ON CONFLICT (parameter_name) DO NOTHING`,
	`INSERT INTO dim_time (full_date, year, quarter, month, day, hour, is_weekend)
    SELECT DISTINCT
        datetime::DATE,
        EXTRACT(YEAR FROM datetime)::INTEGER,
        EXTRACT(QUARTER FROM datetime)::INTEGER,
        EXTRACT(MONTH FROM datetime)::INTEGER,
        EXTRACT(DAY FROM datetime)::INTEGER,
        EXTRACT(HOUR FROM datetime)::INTEGER,
        EXTRACT(ISODOW FROM datetime) IN (6, 7)
    FROM measurements
    ON CONFLICT (full_date, hour) DO NOTHING`,
	`INSERT INTO fact_air_quality (
        measurement_id, location_key, parameter_key, time_key, sensor_id, value
    )
    SELECT m.id, dl.location_key, dp.parameter_key, dt.time_key, m.sensor_id, m.value
    FROM measurements m
    JOIN dim_locations dl ON dl.location_id = m.location_id
    JOIN dim_time dt
        ON dt.full_date = m.datetime::DATE
        AND dt.hour = EXTRACT(HOUR FROM m.datetime)::INTEGER
    LEFT JOIN sensors s ON s.id = m.sensor_id
    LEFT JOIN dim_parameters dp ON dp.parameter_name = s.parameter_name
    ON CONFLICT (measurement_id) DO NOTHING`,
}

// Transformer runs the warehouse derivation over a committed raw tier.
type Transformer struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewTransformer wraps a pool.
func NewTransformer(pool *pgxpool.Pool, log zerolog.Logger) *Transformer {
	return &Transformer{pool: pool, log: log}
}

// Transform creates the dimensional tables if needed and loads them from
// the raw tier. The whole derivation is one transaction.
func (t *Transformer) Transform(ctx context.Context) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range dimensionDDL {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("warehouse ddl: %w", err)
		}
	}
	for _, stmt := range populationSQL {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("warehouse load: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	t.log.Info().Msg("warehouse transformation completed")
	return nil
}
