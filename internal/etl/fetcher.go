// Package etl composes the fetch, filter and persistence layers into
// ingestion cycles.
package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zerotwo/openaq-watcher/internal/models"
	"github.com/zerotwo/openaq-watcher/internal/openaq"
)

// Source is the slice of the API client the orchestrator needs.
type Source interface {
	Get(ctx context.Context, endpoint string, params url.Values) (openaq.Envelope, error)
	FetchAll(ctx context.Context, endpoint string, pageSize int, extra url.Values) ([]json.RawMessage, error)
}

// Fetcher assembles the per-cycle working set: active locations with their
// sensors and recent measurements.
type Fetcher struct {
	src      Source
	pageSize int
	log      zerolog.Logger

	// now is swapped out in tests to pin the temporal windows.
	now func() time.Time

	activeWindow time.Duration
	recentWindow time.Duration
}

// NewFetcher builds a Fetcher with the default temporal windows.
func NewFetcher(src Source, pageSize int, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		src:          src,
		pageSize:     pageSize,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		activeWindow: openaq.ActiveWindow,
		recentWindow: openaq.RecentWindow,
	}
}

// ActiveLocations produces the working set in a fixed order: full
// catalogue, active filter, optional cap, then per-location measurements
// and sensors. A location without recent measurements is dropped. Failures
// for one location never abort the batch; a catalogue failure does.
func (f *Fetcher) ActiveLocations(ctx context.Context, limit int) ([]models.LocationBundle, error) {
	raws, err := f.src.FetchAll(ctx, "locations", f.pageSize, nil)
	if err != nil {
		return nil, err
	}
	f.log.Info().Int("count", len(raws)).Msg("fetched location catalogue")

	now := f.now()

	active := make([]models.Location, 0, len(raws))
	for _, raw := range raws {
		loc, err := openaq.ToLocation(raw)
		if err != nil {
			f.log.Warn().Err(err).Msg("skipping undecodable location")
			continue
		}
		if openaq.Active(loc.LastUpdate, now, f.activeWindow) {
			active = append(active, loc)
		}
	}
	f.log.Info().Int("active", len(active)).Int("total", len(raws)).Msg("filtered active locations")

	// The cap applies to the active set, not the raw catalogue, so capped
	// runs still yield data-bearing locations.
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}

	bundles := make([]models.LocationBundle, 0, len(active))
	for _, loc := range active {
		measurements := f.recentMeasurements(ctx, loc.ID, now)
		if len(measurements) == 0 {
			continue
		}

		loc.SensorIDs = distinctSensorIDs(measurements)
		bundles = append(bundles, models.LocationBundle{
			Location:     loc,
			Sensors:      f.sensors(ctx, loc.ID),
			Measurements: measurements,
		})
	}
	f.log.Info().Int("locations", len(bundles)).Msg("assembled working set")

	return bundles, nil
}

// recentMeasurements fetches the latest feed for one location and keeps the
// observations inside the recency window. Every failure degrades to an
// empty result.
func (f *Fetcher) recentMeasurements(ctx context.Context, locationID int, now time.Time) []models.Measurement {
	env, err := f.src.Get(ctx, fmt.Sprintf("locations/%d/latest", locationID), nil)
	if err != nil {
		f.log.Warn().Err(err).Int("location_id", locationID).Msg("latest measurements fetch failed")
		return nil
	}

	recent := make([]models.Measurement, 0, len(env.Results))
	for _, raw := range env.Results {
		m, err := openaq.ToMeasurement(raw, locationID)
		if err != nil {
			f.log.Warn().Err(err).Int("location_id", locationID).Msg("skipping bad measurement record")
			continue
		}
		if openaq.Recent(m.Datetime, now, f.recentWindow) {
			recent = append(recent, m)
		}
	}
	return recent
}

// sensors fetches sensor metadata for one location; a failure yields an
// empty list, never an aborted batch.
func (f *Fetcher) sensors(ctx context.Context, locationID int) []models.Sensor {
	env, err := f.src.Get(ctx, fmt.Sprintf("locations/%d/sensors", locationID), nil)
	if err != nil {
		f.log.Warn().Err(err).Int("location_id", locationID).Msg("sensors fetch failed")
		return nil
	}

	sensors := make([]models.Sensor, 0, len(env.Results))
	for _, raw := range env.Results {
		s, err := openaq.ToSensor(raw, locationID)
		if err != nil {
			f.log.Warn().Err(err).Int("location_id", locationID).Msg("skipping bad sensor record")
			continue
		}
		sensors = append(sensors, s)
	}
	return sensors
}

func distinctSensorIDs(measurements []models.Measurement) []int {
	seen := make(map[int]struct{}, len(measurements))
	for _, m := range measurements {
		seen[m.SensorID] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
