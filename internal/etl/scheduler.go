package etl

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler triggers ingestion cycles on a fixed interval, starting with an
// immediate run. A failed cycle is logged and isolated: no state crosses
// cycles except what was durably persisted.
type Scheduler struct {
	processor *Processor
	interval  time.Duration
	log       zerolog.Logger
}

// NewScheduler builds an interval trigger around a processor.
func NewScheduler(processor *Processor, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{processor: processor, interval: interval, log: log}
}

// Run blocks until ctx is canceled, running one cycle immediately and then
// one per interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.processor.RunCycle(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled cycle failed")
	}
}
