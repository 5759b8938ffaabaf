package openaq

import (
	"testing"
	"time"
)

func TestActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ts := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		name       string
		lastUpdate *time.Time
		want       bool
	}{
		{"no last update is never active", nil, false},
		{"fresh update", ts(time.Hour), true},
		{"exactly at the window boundary", ts(48 * time.Hour), true},
		{"one second past the boundary", ts(48*time.Hour + time.Second), false},
		{"long stale", ts(100 * time.Hour), false},
		{"future-dated update", ts(-time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Active(tt.lastUpdate, now, ActiveWindow); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		observed time.Time
		want     bool
	}{
		{"one hour old", now.Add(-time.Hour), true},
		{"exactly at the window boundary", now.Add(-24 * time.Hour), true},
		{"one second past the boundary", now.Add(-24*time.Hour - time.Second), false},
		{"future-dated observation passes", now.Add(time.Hour), true},
		{"two days old", now.Add(-48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recent(tt.observed, now, RecentWindow); got != tt.want {
				t.Errorf("Recent(%v) = %v, want %v", tt.observed, got, tt.want)
			}
		})
	}
}
