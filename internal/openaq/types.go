package openaq

import "encoding/json"

// Envelope is the response wrapper every OpenAQ endpoint returns.
type Envelope struct {
	Meta    Meta              `json:"meta"`
	Results []json.RawMessage `json:"results"`
}

// Meta carries pagination bookkeeping. The found field is sometimes a
// number and sometimes a string like ">1000", so it stays raw.
type Meta struct {
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Found json.RawMessage `json:"found"`
}

// Raw API shapes. Required fields are pointers so absence is detectable.

type rawDatetime struct {
	UTC string `json:"utc"`
}

type rawCoordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type rawCountry struct {
	Code *string `json:"code"`
	Name *string `json:"name"`
}

type rawNamed struct {
	Name *string `json:"name"`
}

type rawLocation struct {
	ID           *int            `json:"id"`
	Name         *string         `json:"name"`
	Locality     *string         `json:"locality"`
	Timezone     *string         `json:"timezone"`
	Country      *rawCountry     `json:"country"`
	Owner        *rawNamed       `json:"owner"`
	Provider     *rawNamed       `json:"provider"`
	IsMobile     bool            `json:"isMobile"`
	IsMonitor    bool            `json:"isMonitor"`
	Coordinates  *rawCoordinates `json:"coordinates"`
	DatetimeLast *rawDatetime    `json:"datetimeLast"`
}

type rawParameter struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"displayName"`
	Units       *string `json:"units"`
}

type rawSensor struct {
	ID        *int          `json:"id"`
	Name      *string       `json:"name"`
	Parameter *rawParameter `json:"parameter"`
}

type rawMeasurement struct {
	SensorsID   *int            `json:"sensorsId"`
	Value       *float64        `json:"value"`
	Datetime    *rawDatetime    `json:"datetime"`
	Coordinates *rawCoordinates `json:"coordinates"`
}
