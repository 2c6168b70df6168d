package model

import (
	"fmt"
	"time"
)

// UnitSystem selects which unit family the upstream API returns values in.
type UnitSystem string

const (
	UnitImperial UnitSystem = "imperial"
	UnitMetric   UnitSystem = "metric"
)

// ParseUnitSystem validates a user-supplied unit system string.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(s) {
	case UnitImperial:
		return UnitImperial, nil
	case UnitMetric:
		return UnitMetric, nil
	}
	return "", fmt.Errorf("unknown unit system %q (want %q or %q)", s, UnitImperial, UnitMetric)
}

// Daily and hourly field names as used by the Open-Meteo forecast API.
const (
	FieldTempMax      = "temperature_2m_max"
	FieldTempMin      = "temperature_2m_min"
	FieldTempMean     = "temperature_2m_mean"
	FieldWindMean     = "wind_speed_10m_mean"
	FieldWindMin      = "wind_speed_10m_min"
	FieldWindMax      = "wind_speed_10m_max"
	FieldHumidityMean = "relative_humidity_2m_mean"
	FieldHumidityMax  = "relative_humidity_2m_max"
	FieldHumidityMin  = "relative_humidity_2m_min"
	FieldPrecipSum    = "precipitation_sum"
	FieldRainSum      = "rain_sum"
	FieldTemp         = "temperature_2m"
)

// DefaultDailyFields is the daily field list requested on every refresh.
func DefaultDailyFields() []string {
	return []string{
		FieldTempMax, FieldTempMin, FieldTempMean,
		FieldWindMean, FieldWindMin, FieldWindMax,
		FieldHumidityMean, FieldHumidityMax, FieldHumidityMin,
		FieldPrecipSum, FieldRainSum,
	}
}

// DefaultHourlyFields is the hourly field list requested on every refresh.
func DefaultHourlyFields() []string {
	return []string{FieldTemp}
}

// ForecastRequest describes one upstream forecast query. It is built once at
// startup from configuration; only the unit system changes afterwards, when
// the user toggles units.
type ForecastRequest struct {
	Latitude     float64
	Longitude    float64
	Units        UnitSystem
	DailyFields  []string
	HourlyFields []string
	PastDays     int
	ForecastDays int
	Timezone     string
}

// Validate checks coordinate ranges and the unit system.
func (r ForecastRequest) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", r.Longitude)
	}
	if _, err := ParseUnitSystem(string(r.Units)); err != nil {
		return err
	}
	return nil
}

// WithUnits returns a copy of the request targeting the given unit system.
func (r ForecastRequest) WithUnits(u UnitSystem) ForecastRequest {
	r.Units = u
	return r
}

// Equal reports whether two requests would produce interchangeable responses.
// Field slices are compared by value, so a request copy compares equal.
func (r ForecastRequest) Equal(o ForecastRequest) bool {
	if r.Latitude != o.Latitude || r.Longitude != o.Longitude || r.Units != o.Units ||
		r.PastDays != o.PastDays || r.ForecastDays != o.ForecastDays || r.Timezone != o.Timezone {
		return false
	}
	return equalStrings(r.DailyFields, o.DailyFields) && equalStrings(r.HourlyFields, o.HourlyFields)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TimeSeries is a display-ready metric: paired, length-aligned timestamp and
// value sequences with presentation labels. Timestamps are strictly
// increasing; the normalizer rejects anything else.
type TimeSeries struct {
	Label      string      `json:"label"`
	Unit       string      `json:"unit"`
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
}

// Len returns the number of points in the series.
func (s TimeSeries) Len() int { return len(s.Values) }

// CurrentConditions is the "right now" subset of the latest fetch: the first
// hourly sample at or after the refresh instant plus today's daily min/max.
// Pointers are nil when the upstream omitted the backing field.
type CurrentConditions struct {
	Temperature  *float64  `json:"temperature,omitempty"`
	TodayMax     *float64  `json:"today_max,omitempty"`
	TodayMin     *float64  `json:"today_min,omitempty"`
	WindSpeed    *float64  `json:"wind_speed,omitempty"`
	Humidity     *float64  `json:"humidity,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
	TempUnit     string    `json:"temp_unit"`
	WindUnit     string    `json:"wind_unit"`
	HumidityUnit string    `json:"humidity_unit"`
}

// DashboardState is the single long-lived object of the system: everything
// the renderer needs, produced by one successful refresh. It is replaced
// wholesale on each refresh, never merged.
type DashboardState struct {
	Daily         map[string]TimeSeries `json:"daily"`
	Hourly        map[string]TimeSeries `json:"hourly"`
	Current       CurrentConditions     `json:"current"`
	Units         UnitSystem            `json:"units"`
	LastRefreshed time.Time             `json:"last_refreshed"`
}
