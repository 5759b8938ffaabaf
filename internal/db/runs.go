package db

import (
	"context"

	"github.com/zerotwo/openaq-watcher/internal/models"
)

const insertRunSQL = `
INSERT INTO etl_runs (id, started_at, status)
VALUES ($1, $2, $3)`

const finishRunSQL = `
UPDATE etl_runs
SET finished_at = $2,
    status = $3,
    locations = $4,
    sensors = $5,
    measurements = $6,
    message = $7
WHERE id = $1`

// RecordRunStart writes the bookkeeping row for a new ingestion cycle.
func (r *Repository) RecordRunStart(ctx context.Context, run models.IngestRun) error {
	_, err := r.pool.Exec(ctx, insertRunSQL, run.ID, run.StartedAt, run.Status)
	return err
}

// RecordRunFinish updates the cycle's bookkeeping row with its outcome.
func (r *Repository) RecordRunFinish(ctx context.Context, run models.IngestRun) error {
	_, err := r.pool.Exec(ctx, finishRunSQL,
		run.ID, run.FinishedAt, run.Status,
		run.Locations, run.Sensors, run.Measurements, run.Message,
	)
	return err
}
