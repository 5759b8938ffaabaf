package db

import (
	"fmt"
	"strings"
)

// tableSchema is a declarative per-entity mapping consumed by the generic
// SQL builders below: columns in insert order, the conflict key, and the
// set overwritten on conflict. An empty key means append-only.
type tableSchema struct {
	name      string
	columns   []string
	key       string
	updatable []string
}

var locationsSchema = tableSchema{
	name: "locations",
	columns: []string{
		"id", "name", "country_code", "country_name", "city", "coordinates",
		"timezone", "owner_name", "provider_name", "is_mobile", "is_monitor",
		"sensor_ids", "last_update",
	},
	key: "id",
	updatable: []string{
		"name", "country_code", "country_name", "city", "coordinates",
		"timezone", "owner_name", "provider_name", "is_mobile", "is_monitor",
		"sensor_ids", "last_update",
	},
}

var sensorsSchema = tableSchema{
	name: "sensors",
	columns: []string{
		"id", "location_id", "name", "parameter_name",
		"parameter_display_name", "units",
	},
	key: "id",
	updatable: []string{
		"location_id", "name", "parameter_name",
		"parameter_display_name", "units",
	},
}

var measurementsSchema = tableSchema{
	name:    "measurements",
	columns: []string{"location_id", "sensor_id", "value", "datetime", "coordinates"},
}

// insertSQL builds a plain positional insert.
func (s tableSchema) insertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.name, strings.Join(s.columns, ", "), placeholders(len(s.columns)),
	)
}

// upsertSQL builds an insert with last-write-wins conflict handling on the
// key column. The updated_at column tracks the overwrite.
func (s tableSchema) upsertSQL() string {
	sets := make([]string, 0, len(s.updatable)+1)
	for _, col := range s.updatable {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	sets = append(sets, "updated_at = NOW()")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		s.name, strings.Join(s.columns, ", "), placeholders(len(s.columns)),
		s.key, strings.Join(sets, ", "),
	)
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
