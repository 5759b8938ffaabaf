package openaq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zerotwo/openaq-watcher/internal/models"
)

// timestampLayout is the only timestamp format the upstream emits.
const timestampLayout = "2006-01-02T15:04:05Z"

// ParseTimestamp parses an upstream UTC timestamp string. A failure is a
// TimestampError, never a silent default.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, &TimestampError{Value: s, Err: err}
	}
	return ts, nil
}

// ToLocation maps one raw locations record to a domain Location.
func ToLocation(raw json.RawMessage) (models.Location, error) {
	var r rawLocation
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Location{}, fmt.Errorf("decode location: %w", err)
	}

	switch {
	case r.ID == nil:
		return models.Location{}, &FieldError{Path: "id"}
	case r.Name == nil:
		return models.Location{}, &FieldError{Path: "name"}
	case r.Country == nil:
		return models.Location{}, &FieldError{Path: "country"}
	case r.Country.Code == nil:
		return models.Location{}, &FieldError{Path: "country.code"}
	case r.Country.Name == nil:
		return models.Location{}, &FieldError{Path: "country.name"}
	}

	coords, err := toCoordinates(r.Coordinates)
	if err != nil {
		return models.Location{}, err
	}

	loc := models.Location{
		ID:          *r.ID,
		Name:        *r.Name,
		CountryCode: *r.Country.Code,
		CountryName: *r.Country.Name,
		City:        r.Locality,
		Coordinates: coords,
		Timezone:    r.Timezone,
		IsMobile:    r.IsMobile,
		IsMonitor:   r.IsMonitor,
	}
	if r.Owner != nil {
		loc.OwnerName = r.Owner.Name
	}
	if r.Provider != nil {
		loc.ProviderName = r.Provider.Name
	}
	if r.DatetimeLast != nil {
		ts, err := ParseTimestamp(r.DatetimeLast.UTC)
		if err != nil {
			return models.Location{}, err
		}
		loc.LastUpdate = &ts
	}

	return loc, nil
}

// ToSensor maps one raw sensors record to a domain Sensor owned by
// locationID.
func ToSensor(raw json.RawMessage, locationID int) (models.Sensor, error) {
	var r rawSensor
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Sensor{}, fmt.Errorf("decode sensor: %w", err)
	}

	switch {
	case r.ID == nil:
		return models.Sensor{}, &FieldError{Path: "id"}
	case r.Name == nil:
		return models.Sensor{}, &FieldError{Path: "name"}
	case r.Parameter == nil:
		return models.Sensor{}, &FieldError{Path: "parameter"}
	case r.Parameter.Name == nil:
		return models.Sensor{}, &FieldError{Path: "parameter.name"}
	case r.Parameter.DisplayName == nil:
		return models.Sensor{}, &FieldError{Path: "parameter.displayName"}
	case r.Parameter.Units == nil:
		return models.Sensor{}, &FieldError{Path: "parameter.units"}
	}

	return models.Sensor{
		ID:                   *r.ID,
		LocationID:           locationID,
		Name:                 *r.Name,
		ParameterName:        *r.Parameter.Name,
		ParameterDisplayName: *r.Parameter.DisplayName,
		Units:                *r.Parameter.Units,
	}, nil
}

// ToMeasurement maps one raw latest-measurement record to a domain
// Measurement owned by locationID. Values pass through without unit
// conversion.
func ToMeasurement(raw json.RawMessage, locationID int) (models.Measurement, error) {
	var r rawMeasurement
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Measurement{}, fmt.Errorf("decode measurement: %w", err)
	}

	switch {
	case r.SensorsID == nil:
		return models.Measurement{}, &FieldError{Path: "sensorsId"}
	case r.Value == nil:
		return models.Measurement{}, &FieldError{Path: "value"}
	case r.Datetime == nil:
		return models.Measurement{}, &FieldError{Path: "datetime.utc"}
	}

	ts, err := ParseTimestamp(r.Datetime.UTC)
	if err != nil {
		return models.Measurement{}, err
	}

	coords, err := toCoordinates(r.Coordinates)
	if err != nil {
		return models.Measurement{}, err
	}

	return models.Measurement{
		LocationID:  locationID,
		SensorID:    *r.SensorsID,
		Value:       *r.Value,
		Datetime:    ts,
		Coordinates: coords,
	}, nil
}

// toCoordinates enforces the both-or-neither rule and the range invariant.
func toCoordinates(r *rawCoordinates) (*models.Coordinates, error) {
	if r == nil || (r.Latitude == nil && r.Longitude == nil) {
		return nil, nil
	}
	if r.Latitude == nil {
		return nil, &FieldError{Path: "coordinates.latitude"}
	}
	if r.Longitude == nil {
		return nil, &FieldError{Path: "coordinates.longitude"}
	}

	c := models.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinates: %w", err)
	}
	return &c, nil
}
