package openaq

import "time"

// Default temporal windows for the ingestion working set.
const (
	// ActiveWindow is how stale a location's last observation may be for
	// the location to still count as active.
	ActiveWindow = 48 * time.Hour

	// RecentWindow is the trailing window a measurement must fall into to
	// be ingested.
	RecentWindow = 24 * time.Hour
)

// Active reports whether a location updated at lastUpdate counts as active
// at now. A location that never reported is never active. The boundary is
// inclusive: staleness of exactly the window is still active.
func Active(lastUpdate *time.Time, now time.Time, window time.Duration) bool {
	if lastUpdate == nil {
		return false
	}
	return now.Sub(*lastUpdate) <= window
}

// Recent reports whether an observation at observed falls within the
// trailing window ending at now. The boundary is inclusive and future-dated
// observations pass: the window is only bounded on the stale side.
func Recent(observed, now time.Time, window time.Duration) bool {
	return !observed.Before(now.Add(-window))
}
