package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zerotwo/openaq-watcher/internal/models"
)

// Store is the read side of the raw tier, used by the ops API.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const listLocationsSQL = `
SELECT id, name, country_code, country_name, city, coordinates,
       timezone, owner_name, provider_name, is_mobile, is_monitor,
       sensor_ids, last_update
FROM locations
ORDER BY id`

// ListLocations returns every ingested location.
func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, listLocationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

const getLocationSQL = `
SELECT id, name, country_code, country_name, city, coordinates,
       timezone, owner_name, provider_name, is_mobile, is_monitor,
       sensor_ids, last_update
FROM locations
WHERE id = $1`

// GetLocation returns one location, or nil when it does not exist.
func (s *Store) GetLocation(ctx context.Context, id int) (*models.Location, error) {
	rows, err := s.pool.Query(ctx, getLocationSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	loc, err := scanLocation(rows)
	if err != nil {
		return nil, err
	}
	return &loc, rows.Err()
}

const locationSensorsSQL = `
SELECT id, location_id, name, parameter_name, parameter_display_name, units
FROM sensors
WHERE location_id = $1
ORDER BY id`

// LocationSensors returns the sensors attached to one location.
func (s *Store) LocationSensors(ctx context.Context, locationID int) ([]models.Sensor, error) {
	rows, err := s.pool.Query(ctx, locationSensorsSQL, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sensors := make([]models.Sensor, 0)
	for rows.Next() {
		var sn models.Sensor
		var name, pname, pdisplay, units *string
		if err := rows.Scan(&sn.ID, &sn.LocationID, &name, &pname, &pdisplay, &units); err != nil {
			return nil, err
		}
		sn.Name = deref(name)
		sn.ParameterName = deref(pname)
		sn.ParameterDisplayName = deref(pdisplay)
		sn.Units = deref(units)
		sensors = append(sensors, sn)
	}
	return sensors, rows.Err()
}

const locationMeasurementsSQL = `
SELECT location_id, sensor_id, value, datetime, coordinates
FROM measurements
WHERE location_id = $1 AND datetime >= $2
ORDER BY datetime DESC
LIMIT $3`

// LocationMeasurements returns measurements for a location since a point in
// time, newest first.
func (s *Store) LocationMeasurements(ctx context.Context, locationID int, since time.Time, limit int) ([]models.Measurement, error) {
	rows, err := s.pool.Query(ctx, locationMeasurementsSQL, locationID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	measurements := make([]models.Measurement, 0)
	for rows.Next() {
		var m models.Measurement
		var sensorID *int
		var coords []byte
		if err := rows.Scan(&m.LocationID, &sensorID, &m.Value, &m.Datetime, &coords); err != nil {
			return nil, err
		}
		if sensorID != nil {
			m.SensorID = *sensorID
		}
		if m.Coordinates, err = coordsFromJSON(coords); err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

const listRunsSQL = `
SELECT id, started_at, finished_at, status, locations, sensors, measurements, message
FROM etl_runs
ORDER BY started_at DESC
LIMIT $1`

// ListRuns returns the most recent ingestion cycles, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	rows, err := s.pool.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]models.IngestRun, 0)
	for rows.Next() {
		var run models.IngestRun
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.Locations, &run.Sensors, &run.Measurements, &run.Message,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanLocation(rows pgx.Rows) (models.Location, error) {
	var loc models.Location
	var countryCode, countryName *string
	var coords []byte
	var sensorIDs []int32

	err := rows.Scan(
		&loc.ID, &loc.Name, &countryCode, &countryName, &loc.City, &coords,
		&loc.Timezone, &loc.OwnerName, &loc.ProviderName, &loc.IsMobile,
		&loc.IsMonitor, &sensorIDs, &loc.LastUpdate,
	)
	if err != nil {
		return loc, err
	}

	loc.CountryCode = deref(countryCode)
	loc.CountryName = deref(countryName)
	if loc.Coordinates, err = coordsFromJSON(coords); err != nil {
		return loc, err
	}
	loc.SensorIDs = make([]int, len(sensorIDs))
	for i, id := range sensorIDs {
		loc.SensorIDs[i] = int(id)
	}
	return loc, nil
}

func coordsFromJSON(raw []byte) (*models.Coordinates, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c models.Coordinates
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.New("corrupt coordinates payload")
	}
	return &c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
