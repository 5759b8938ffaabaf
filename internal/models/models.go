package models

import (
	"fmt"
	"time"
)

// Coordinates is a geographic point in decimal degrees. It is always
// embedded in a Location or Measurement, never persisted on its own.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// Location is a monitoring site. The id is the natural key; mutable fields
// are overwritten on every upsert.
type Location struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	CountryCode  string       `json:"country_code"`
	CountryName  string       `json:"country_name"`
	City         *string      `json:"city,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Timezone     *string      `json:"timezone,omitempty"`
	OwnerName    *string      `json:"owner_name,omitempty"`
	ProviderName *string      `json:"provider_name,omitempty"`
	IsMobile     bool         `json:"is_mobile"`
	IsMonitor    bool         `json:"is_monitor"`
	SensorIDs    []int        `json:"sensor_ids"`
	LastUpdate   *time.Time   `json:"last_update,omitempty"`
}

// Sensor is one measuring instrument at a location. Its location must be
// persisted before the sensor is.
type Sensor struct {
	ID                   int    `json:"id"`
	LocationID           int    `json:"location_id"`
	Name                 string `json:"name"`
	ParameterName        string `json:"parameter_name"`
	ParameterDisplayName string `json:"parameter_display_name"`
	Units                string `json:"units"`
}

// Measurement is a single observation. Append-only: there is no update or
// delete path once a row is written.
type Measurement struct {
	LocationID  int          `json:"location_id"`
	SensorID    int          `json:"sensor_id"`
	Value       float64      `json:"value"`
	Datetime    time.Time    `json:"datetime"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// LocationBundle is the working set produced by one orchestrator pass for a
// single location: the location plus everything fetched for it.
type LocationBundle struct {
	Location     Location
	Sensors      []Sensor
	Measurements []Measurement
}

// IngestRun records one ingestion cycle for operational visibility.
type IngestRun struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       string     `json:"status"`
	Locations    int        `json:"locations"`
	Sensors      int        `json:"sensors"`
	Measurements int        `json:"measurements"`
	Message      *string    `json:"message,omitempty"`
}
