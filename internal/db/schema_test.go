package db

import (
	"strings"
	"testing"
)

func TestLocationsUpsertSQL(t *testing.T) {
	got := locationsSchema.upsertSQL()

	want := "INSERT INTO locations (id, name, country_code, country_name, city, coordinates, " +
		"timezone, owner_name, provider_name, is_mobile, is_monitor, sensor_ids, last_update) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) " +
		"ON CONFLICT (id) DO UPDATE SET " +
		"name = EXCLUDED.name, country_code = EXCLUDED.country_code, " +
		"country_name = EXCLUDED.country_name, city = EXCLUDED.city, " +
		"coordinates = EXCLUDED.coordinates, timezone = EXCLUDED.timezone, " +
		"owner_name = EXCLUDED.owner_name, provider_name = EXCLUDED.provider_name, " +
		"is_mobile = EXCLUDED.is_mobile, is_monitor = EXCLUDED.is_monitor, " +
		"sensor_ids = EXCLUDED.sensor_ids, last_update = EXCLUDED.last_update, " +
		"updated_at = NOW()"
	if got != want {
		t.Errorf("upsertSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestSensorsUpsertOverwritesLocation(t *testing.T) {
	got := sensorsSchema.upsertSQL()
	// A sensor moving between locations must follow the latest payload.
	if !strings.Contains(got, "location_id = EXCLUDED.location_id") {
		t.Errorf("sensors upsert should overwrite location_id:\n%s", got)
	}
	if !strings.Contains(got, "ON CONFLICT (id) DO UPDATE SET") {
		t.Errorf("sensors upsert should key on id:\n%s", got)
	}
}

func TestMeasurementsInsertSQL(t *testing.T) {
	got := measurementsSchema.insertSQL()
	want := "INSERT INTO measurements (location_id, sensor_id, value, datetime, coordinates) " +
		"VALUES ($1, $2, $3, $4, $5)"
	if got != want {
		t.Errorf("insertSQL() = %q, want %q", got, want)
	}
	// Measurements are append-only: no conflict clause.
	if strings.Contains(got, "ON CONFLICT") {
		t.Error("measurements insert must not carry conflict handling")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(1); got != "$1" {
		t.Errorf("placeholders(1) = %q", got)
	}
	if got := placeholders(3); got != "$1, $2, $3" {
		t.Errorf("placeholders(3) = %q", got)
	}
}
