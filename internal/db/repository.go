package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/zerotwo/openaq-watcher/internal/models"
)

// ReferentialError reports a save attempted before the owning location was
// persisted in the same run. The orchestrator's call order should make this
// unreachable; it is never retried.
type ReferentialError struct {
	LocationID int
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("location %d not persisted before dependent rows", e.LocationID)
}

// Run tracks the location identifiers persisted during one ingestion cycle.
// It is passed explicitly so repeated or concurrent cycles cannot leak
// state into each other.
type Run struct {
	valid map[int]struct{}
}

// NewRun returns an empty per-cycle run context.
func NewRun() *Run {
	return &Run{valid: make(map[int]struct{})}
}

// Valid reports whether a location was persisted in this run.
func (r *Run) Valid(locationID int) bool {
	_, ok := r.valid[locationID]
	return ok
}

// Locations returns the number of locations persisted in this run.
func (r *Run) Locations() int { return len(r.valid) }

// Register marks a location as persisted in this run.
func (r *Run) Register(locationID int) {
	r.valid[locationID] = struct{}{}
}

// FilterMeasurements drops measurements whose location is not part of this
// run. Orphans are discarded, never stored and never an error.
func (r *Run) FilterMeasurements(batch []models.Measurement) []models.Measurement {
	kept := make([]models.Measurement, 0, len(batch))
	for _, m := range batch {
		if r.Valid(m.LocationID) {
			kept = append(kept, m)
		}
	}
	return kept
}

// Repository persists the raw tier. Every save method is one scoped
// transaction: a row-level failure rolls the whole call back.
type Repository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewRepository wraps a pool.
func NewRepository(pool *pgxpool.Pool, log zerolog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// SaveLocation upserts one location and registers its id with the run.
func (r *Repository) SaveLocation(ctx context.Context, run *Run, loc models.Location) error {
	coords, err := coordsJSON(loc.Coordinates)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, locationsSchema.upsertSQL(),
		loc.ID, loc.Name, loc.CountryCode, loc.CountryName, loc.City, coords,
		loc.Timezone, loc.OwnerName, loc.ProviderName, loc.IsMobile,
		loc.IsMonitor, toInt32s(loc.SensorIDs), loc.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("save location %d: %w", loc.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	run.Register(loc.ID)
	return nil
}

// SaveSensors upserts a sensor batch. Every sensor's location must already
// be persisted in this run.
func (r *Repository) SaveSensors(ctx context.Context, run *Run, sensors []models.Sensor) error {
	if len(sensors) == 0 {
		return nil
	}
	for _, s := range sensors {
		if !run.Valid(s.LocationID) {
			return &ReferentialError{LocationID: s.LocationID}
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range sensors {
		batch.Queue(sensorsSchema.upsertSQL(),
			s.ID, s.LocationID, s.Name, s.ParameterName,
			s.ParameterDisplayName, s.Units,
		)
	}
	if err := sendBatch(ctx, tx, batch, len(sensors)); err != nil {
		return fmt.Errorf("save sensors: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveMeasurements appends a measurement batch, discarding rows whose
// location is not part of this run. Returns the number of rows written.
func (r *Repository) SaveMeasurements(ctx context.Context, run *Run, batch []models.Measurement) (int, error) {
	kept := run.FilterMeasurements(batch)
	if dropped := len(batch) - len(kept); dropped > 0 {
		r.log.Warn().Int("dropped", dropped).Msg("discarded orphaned measurements")
	}
	if len(kept) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, m := range kept {
		coords, err := coordsJSON(m.Coordinates)
		if err != nil {
			return 0, err
		}
		b.Queue(measurementsSchema.insertSQL(),
			m.LocationID, m.SensorID, m.Value, m.Datetime, coords,
		)
	}
	if err := sendBatch(ctx, tx, b, len(kept)); err != nil {
		return 0, fmt.Errorf("save measurements: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return len(kept), nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, n int) error {
	res := tx.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := res.Exec(); err != nil {
			res.Close()
			return err
		}
	}
	return res.Close()
}

func coordsJSON(c *models.Coordinates) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func toInt32s(ids []int) []int32 {
	if len(ids) == 0 {
		return nil
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	out := make([]int32, len(sorted))
	for i, id := range sorted {
		out[i] = int32(id)
	}
	return out
}
