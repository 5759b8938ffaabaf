package etl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zerotwo/openaq-watcher/internal/openaq"
)

const apiTimeLayout = "2006-01-02T15:04:05Z"

// fakeAPI serves a minimal OpenAQ: a catalogue plus per-location latest and
// sensors feeds, recording every path hit.
type fakeAPI struct {
	mu        sync.Mutex
	paths     []string
	locations string
	latest    map[string]string
	sensors   map[string]string
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/locations":
			fmt.Fprintf(w, `{"meta":{},"results":[%s]}`, f.locations)
		default:
			for id, body := range f.latest {
				if r.URL.Path == "/locations/"+id+"/latest" {
					fmt.Fprintf(w, `{"meta":{},"results":[%s]}`, body)
					return
				}
			}
			for id, body := range f.sensors {
				if r.URL.Path == "/locations/"+id+"/sensors" {
					fmt.Fprintf(w, `{"meta":{},"results":[%s]}`, body)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeAPI) hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.paths {
		if p == path {
			n++
		}
	}
	return n
}

func locationJSON(id int, name string, lastUpdate string) string {
	dt := ""
	if lastUpdate != "" {
		dt = fmt.Sprintf(`,"datetimeLast":{"utc":"%s"}`, lastUpdate)
	}
	return fmt.Sprintf(
		`{"id":%d,"name":"%s","country":{"code":"CO","name":"Colombia"},"coordinates":{"latitude":6.25,"longitude":-75.57}%s}`,
		id, name, dt,
	)
}

func measurementJSON(sensorID int, value float64, ts string) string {
	return fmt.Sprintf(`{"sensorsId":%d,"value":%v,"datetime":{"utc":"%s"}}`, sensorID, value, ts)
}

func newTestFetcher(t *testing.T, api *fakeAPI, now time.Time) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		MaxAttempts: 1,
		Logger:      zerolog.Nop(),
	})

	f := NewFetcher(client, 100, zerolog.Nop())
	f.now = func() time.Time { return now }
	return f, srv
}

func TestActiveLocationsEndToEnd(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(apiTimeLayout)
	stale := now.Add(-100 * time.Hour).Format(apiTimeLayout)
	recentTS := now.Add(-2 * time.Hour).Format(apiTimeLayout)
	oldTS := now.Add(-30 * time.Hour).Format(apiTimeLayout)

	api := &fakeAPI{
		locations: locationJSON(1, "active site", fresh) + "," + locationJSON(2, "stale site", stale),
		latest: map[string]string{
			"1": measurementJSON(10, 12.5, recentTS) + "," +
				measurementJSON(11, 3.1, recentTS) + "," +
				measurementJSON(10, 9.9, oldTS),
		},
		sensors: map[string]string{
			"1": `{"id":10,"name":"pm25","parameter":{"name":"pm25","displayName":"PM2.5","units":"µg/m³"}},
                  {"id":11,"name":"pm10","parameter":{"name":"pm10","displayName":"PM10","units":"µg/m³"}}`,
		},
	}

	f, _ := newTestFetcher(t, api, now)
	bundles, err := f.ActiveLocations(context.Background(), 0)
	if err != nil {
		t.Fatalf("ActiveLocations() error = %v", err)
	}

	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1", len(bundles))
	}
	b := bundles[0]
	if b.Location.ID != 1 {
		t.Errorf("Location.ID = %d, want 1", b.Location.ID)
	}
	if len(b.Measurements) != 2 {
		t.Errorf("got %d measurements, want 2 (old one filtered)", len(b.Measurements))
	}
	if len(b.Sensors) != 2 {
		t.Errorf("got %d sensors, want 2", len(b.Sensors))
	}
	wantIDs := []int{10, 11}
	if len(b.Location.SensorIDs) != len(wantIDs) {
		t.Fatalf("SensorIDs = %v, want %v", b.Location.SensorIDs, wantIDs)
	}
	for i, id := range wantIDs {
		if b.Location.SensorIDs[i] != id {
			t.Errorf("SensorIDs = %v, want %v", b.Location.SensorIDs, wantIDs)
		}
	}

	// The stale location must never be probed.
	if n := api.hits("/locations/2/latest"); n != 0 {
		t.Errorf("stale location latest fetched %d times, want 0", n)
	}
}

func TestActiveLocationsDropsLocationWithoutRecentData(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(apiTimeLayout)
	oldTS := now.Add(-30 * time.Hour).Format(apiTimeLayout)

	api := &fakeAPI{
		locations: locationJSON(1, "active but quiet", fresh),
		latest:    map[string]string{"1": measurementJSON(10, 1.0, oldTS)},
		sensors:   map[string]string{},
	}

	f, _ := newTestFetcher(t, api, now)
	bundles, err := f.ActiveLocations(context.Background(), 0)
	if err != nil {
		t.Fatalf("ActiveLocations() error = %v", err)
	}
	if len(bundles) != 0 {
		t.Errorf("got %d bundles, want 0", len(bundles))
	}
	// Dropped before the sensors call.
	if n := api.hits("/locations/1/sensors"); n != 0 {
		t.Errorf("sensors fetched %d times for a dropped location, want 0", n)
	}
}

func TestActiveLocationsCapAppliesToActiveSet(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(apiTimeLayout)
	stale := now.Add(-100 * time.Hour).Format(apiTimeLayout)
	recentTS := now.Add(-time.Hour).Format(apiTimeLayout)

	// Stale first in the catalogue: a raw-catalogue cap of 1 would yield
	// nothing; the active-set cap must yield location 2.
	api := &fakeAPI{
		locations: locationJSON(1, "stale", stale) + "," +
			locationJSON(2, "active a", fresh) + "," +
			locationJSON(3, "active b", fresh),
		latest: map[string]string{
			"2": measurementJSON(20, 5.0, recentTS),
			"3": measurementJSON(30, 6.0, recentTS),
		},
		sensors: map[string]string{},
	}

	f, _ := newTestFetcher(t, api, now)
	bundles, err := f.ActiveLocations(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActiveLocations() error = %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1", len(bundles))
	}
	if bundles[0].Location.ID != 2 {
		t.Errorf("Location.ID = %d, want 2 (first active)", bundles[0].Location.ID)
	}
	if n := api.hits("/locations/3/latest"); n != 0 {
		t.Errorf("capped-out location probed %d times, want 0", n)
	}
}

func TestActiveLocationsSensorFailureDegradesToEmpty(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(apiTimeLayout)
	recentTS := now.Add(-time.Hour).Format(apiTimeLayout)

	// No sensors feed registered: the sensors endpoint 404s.
	api := &fakeAPI{
		locations: locationJSON(1, "active", fresh),
		latest:    map[string]string{"1": measurementJSON(10, 1.0, recentTS)},
		sensors:   map[string]string{},
	}

	f, _ := newTestFetcher(t, api, now)
	bundles, err := f.ActiveLocations(context.Background(), 0)
	if err != nil {
		t.Fatalf("ActiveLocations() error = %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1 (sensor failure must not drop the location)", len(bundles))
	}
	if len(bundles[0].Sensors) != 0 {
		t.Errorf("got %d sensors, want 0", len(bundles[0].Sensors))
	}
	if len(bundles[0].Measurements) != 1 {
		t.Errorf("got %d measurements, want 1", len(bundles[0].Measurements))
	}
}

func TestActiveLocationsCatalogueFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:     srv.URL,
		APIKey:      "k",
		MaxAttempts: 1,
		Logger:      zerolog.Nop(),
	})
	f := NewFetcher(client, 100, zerolog.Nop())

	if _, err := f.ActiveLocations(context.Background(), 0); err == nil {
		t.Fatal("ActiveLocations() should propagate a catalogue fetch failure")
	}
}
