package etl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zerotwo/openaq-watcher/internal/db"
	"github.com/zerotwo/openaq-watcher/internal/models"
)

// Repository is the write side the processor persists through.
type Repository interface {
	SaveLocation(ctx context.Context, run *db.Run, loc models.Location) error
	SaveSensors(ctx context.Context, run *db.Run, sensors []models.Sensor) error
	SaveMeasurements(ctx context.Context, run *db.Run, batch []models.Measurement) (int, error)
	RecordRunStart(ctx context.Context, run models.IngestRun) error
	RecordRunFinish(ctx context.Context, run models.IngestRun) error
}

// WarehouseStep is the opaque downstream transformation invoked after the
// raw tier is committed.
type WarehouseStep interface {
	Transform(ctx context.Context) error
}

// Processor runs one ingestion cycle end to end.
type Processor struct {
	fetcher      *Fetcher
	repo         Repository
	warehouse    WarehouseStep
	log          zerolog.Logger
	maxLocations int
	dryRun       bool

	now func() time.Time
}

// NewProcessor wires a cycle processor. maxLocations of zero means no cap.
func NewProcessor(fetcher *Fetcher, repo Repository, warehouse WarehouseStep, maxLocations int, dryRun bool, log zerolog.Logger) *Processor {
	return &Processor{
		fetcher:      fetcher,
		repo:         repo,
		warehouse:    warehouse,
		log:          log,
		maxLocations: maxLocations,
		dryRun:       dryRun,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RunCycle executes one ingestion cycle: fetch the working set, persist it
// location by location, then hand off to the warehouse step. Persistence
// errors are fatal to the cycle; the next scheduled cycle is unaffected.
func (p *Processor) RunCycle(ctx context.Context) (models.IngestRun, error) {
	cycle := models.IngestRun{
		ID:        uuid.NewString(),
		StartedAt: p.now(),
		Status:    "running",
	}
	log := p.log.With().Str("run_id", cycle.ID).Logger()
	log.Info().Msg("ingestion cycle started")

	if !p.dryRun {
		if err := p.repo.RecordRunStart(ctx, cycle); err != nil {
			return cycle, err
		}
	}

	bundles, err := p.fetcher.ActiveLocations(ctx, p.maxLocations)
	if err != nil {
		return p.finish(ctx, log, cycle, err)
	}

	if p.dryRun {
		for _, b := range bundles {
			log.Info().
				Int("location_id", b.Location.ID).
				Int("sensors", len(b.Sensors)).
				Int("measurements", len(b.Measurements)).
				Msg("dry-run: would persist location")
		}
		cycle.Locations = len(bundles)
		cycle.Status = "succeeded"
		finished := p.now()
		cycle.FinishedAt = &finished
		log.Info().Int("locations", cycle.Locations).Msg("dry-run cycle completed")
		return cycle, nil
	}

	run := db.NewRun()
	for _, b := range bundles {
		if err := p.repo.SaveLocation(ctx, run, b.Location); err != nil {
			return p.finish(ctx, log, cycle, err)
		}
		cycle.Locations++

		if err := p.repo.SaveSensors(ctx, run, b.Sensors); err != nil {
			return p.finish(ctx, log, cycle, err)
		}
		cycle.Sensors += len(b.Sensors)

		written, err := p.repo.SaveMeasurements(ctx, run, b.Measurements)
		if err != nil {
			return p.finish(ctx, log, cycle, err)
		}
		cycle.Measurements += written
	}

	if err := p.warehouse.Transform(ctx); err != nil {
		return p.finish(ctx, log, cycle, err)
	}

	cycle, _ = p.finish(ctx, log, cycle, nil)
	return cycle, nil
}

// finish stamps the cycle outcome and records it. The original error, if
// any, is passed through.
func (p *Processor) finish(ctx context.Context, log zerolog.Logger, cycle models.IngestRun, cause error) (models.IngestRun, error) {
	finished := p.now()
	cycle.FinishedAt = &finished

	if cause != nil {
		cycle.Status = "failed"
		msg := cause.Error()
		cycle.Message = &msg
		log.Error().Err(cause).Msg("ingestion cycle failed")
	} else {
		cycle.Status = "succeeded"
		log.Info().
			Int("locations", cycle.Locations).
			Int("sensors", cycle.Sensors).
			Int("measurements", cycle.Measurements).
			Dur("elapsed", finished.Sub(cycle.StartedAt)).
			Msg("ingestion cycle completed")
	}

	if err := p.repo.RecordRunFinish(ctx, cycle); err != nil {
		log.Error().Err(err).Msg("failed to record cycle outcome")
	}
	return cycle, cause
}
