package openaq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

const fullLocationJSON = `{
    "id": 42,
    "name": "Medellín Centro",
    "locality": "Medellín",
    "timezone": "America/Bogota",
    "country": {"code": "CO", "name": "Colombia"},
    "owner": {"name": "SIATA"},
    "provider": {"name": "OpenAQ"},
    "isMobile": false,
    "isMonitor": true,
    "coordinates": {"latitude": 6.25, "longitude": -75.57},
    "datetimeLast": {"utc": "2025-06-01T10:30:00Z"}
}`

func TestToLocation(t *testing.T) {
	loc, err := ToLocation(json.RawMessage(fullLocationJSON))
	if err != nil {
		t.Fatalf("ToLocation() error = %v", err)
	}

	if loc.ID != 42 {
		t.Errorf("ID = %d, want 42", loc.ID)
	}
	if loc.Name != "Medellín Centro" {
		t.Errorf("Name = %q", loc.Name)
	}
	if loc.CountryCode != "CO" || loc.CountryName != "Colombia" {
		t.Errorf("country = %q/%q", loc.CountryCode, loc.CountryName)
	}
	if loc.City == nil || *loc.City != "Medellín" {
		t.Errorf("City = %v, want Medellín", loc.City)
	}
	if loc.OwnerName == nil || *loc.OwnerName != "SIATA" {
		t.Errorf("OwnerName = %v", loc.OwnerName)
	}
	if !loc.IsMonitor || loc.IsMobile {
		t.Errorf("flags = mobile:%v monitor:%v", loc.IsMobile, loc.IsMonitor)
	}
	if loc.Coordinates == nil || loc.Coordinates.Latitude != 6.25 || loc.Coordinates.Longitude != -75.57 {
		t.Errorf("Coordinates = %+v", loc.Coordinates)
	}
	want := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	if loc.LastUpdate == nil || !loc.LastUpdate.Equal(want) {
		t.Errorf("LastUpdate = %v, want %v", loc.LastUpdate, want)
	}
}

func TestToLocationOptionalFieldsAbsent(t *testing.T) {
	raw := json.RawMessage(`{"id":1,"name":"x","country":{"code":"US","name":"United States"}}`)
	loc, err := ToLocation(raw)
	if err != nil {
		t.Fatalf("ToLocation() error = %v", err)
	}
	if loc.City != nil || loc.Coordinates != nil || loc.LastUpdate != nil {
		t.Errorf("optional fields should stay nil: %+v", loc)
	}
}

func TestToLocationMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		path string
	}{
		{"no id", `{"name":"x","country":{"code":"US","name":"y"}}`, "id"},
		{"no name", `{"id":1,"country":{"code":"US","name":"y"}}`, "name"},
		{"no country", `{"id":1,"name":"x"}`, "country"},
		{"no country code", `{"id":1,"name":"x","country":{"name":"y"}}`, "country.code"},
		{"half coordinates", `{"id":1,"name":"x","country":{"code":"US","name":"y"},"coordinates":{"latitude":1.0}}`, "coordinates.longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToLocation(json.RawMessage(tt.raw))
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("ToLocation() error = %v, want FieldError", err)
			}
			if fieldErr.Path != tt.path {
				t.Errorf("Path = %q, want %q", fieldErr.Path, tt.path)
			}
		})
	}
}

func TestToLocationMalformedTimestamp(t *testing.T) {
	raw := json.RawMessage(`{"id":1,"name":"x","country":{"code":"US","name":"y"},"datetimeLast":{"utc":"01/06/2025 10:30"}}`)
	_, err := ToLocation(raw)
	var tsErr *TimestampError
	if !errors.As(err, &tsErr) {
		t.Fatalf("ToLocation() error = %v, want TimestampError", err)
	}
}

func TestToLocationCoordinatesOutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"id":1,"name":"x","country":{"code":"US","name":"y"},"coordinates":{"latitude":95.0,"longitude":0.0}}`)
	if _, err := ToLocation(raw); err == nil {
		t.Fatal("ToLocation() should reject latitude 95")
	}
}

func TestToSensor(t *testing.T) {
	raw := json.RawMessage(`{"id":7,"name":"pm25 sensor","parameter":{"name":"pm25","displayName":"PM2.5","units":"µg/m³"}}`)
	s, err := ToSensor(raw, 42)
	if err != nil {
		t.Fatalf("ToSensor() error = %v", err)
	}
	if s.ID != 7 || s.LocationID != 42 {
		t.Errorf("ids = %d/%d, want 7/42", s.ID, s.LocationID)
	}
	if s.ParameterName != "pm25" || s.ParameterDisplayName != "PM2.5" || s.Units != "µg/m³" {
		t.Errorf("parameter = %q/%q/%q", s.ParameterName, s.ParameterDisplayName, s.Units)
	}
}

func TestToSensorMissingParameterUnits(t *testing.T) {
	raw := json.RawMessage(`{"id":7,"name":"s","parameter":{"name":"pm25","displayName":"PM2.5"}}`)
	_, err := ToSensor(raw, 1)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("ToSensor() error = %v, want FieldError", err)
	}
	if fieldErr.Path != "parameter.units" {
		t.Errorf("Path = %q, want parameter.units", fieldErr.Path)
	}
}

func TestToMeasurement(t *testing.T) {
	raw := json.RawMessage(`{"sensorsId":7,"value":12.5,"datetime":{"utc":"2025-06-01T09:00:00Z"},"coordinates":{"latitude":6.25,"longitude":-75.57}}`)
	m, err := ToMeasurement(raw, 42)
	if err != nil {
		t.Fatalf("ToMeasurement() error = %v", err)
	}
	if m.LocationID != 42 || m.SensorID != 7 {
		t.Errorf("ids = %d/%d, want 42/7", m.LocationID, m.SensorID)
	}
	if m.Value != 12.5 {
		t.Errorf("Value = %v, want 12.5", m.Value)
	}
	want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if !m.Datetime.Equal(want) {
		t.Errorf("Datetime = %v, want %v", m.Datetime, want)
	}
	if m.Coordinates == nil {
		t.Error("Coordinates should be set")
	}
}

func TestToMeasurementMissingValue(t *testing.T) {
	raw := json.RawMessage(`{"sensorsId":7,"datetime":{"utc":"2025-06-01T09:00:00Z"}}`)
	_, err := ToMeasurement(raw, 1)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("ToMeasurement() error = %v, want FieldError", err)
	}
	if fieldErr.Path != "value" {
		t.Errorf("Path = %q, want value", fieldErr.Path)
	}
}

func TestToMeasurementMalformedTimestamp(t *testing.T) {
	raw := json.RawMessage(`{"sensorsId":7,"value":1.0,"datetime":{"utc":"not-a-time"}}`)
	_, err := ToMeasurement(raw, 1)
	var tsErr *TimestampError
	if !errors.As(err, &tsErr) {
		t.Fatalf("ToMeasurement() error = %v, want TimestampError", err)
	}
	if tsErr.Value != "not-a-time" {
		t.Errorf("Value = %q", tsErr.Value)
	}
}

func TestParseTimestampRejectsOffsets(t *testing.T) {
	// Only the fixed Z-suffixed layout is accepted.
	if _, err := ParseTimestamp("2025-06-01T09:00:00+02:00"); err == nil {
		t.Error("ParseTimestamp should reject offset timestamps")
	}
	if _, err := ParseTimestamp("2025-06-01T09:00:00Z"); err != nil {
		t.Errorf("ParseTimestamp() error = %v", err)
	}
}
