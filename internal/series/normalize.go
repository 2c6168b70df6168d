// Package series turns raw forecast payloads into display-ready, typed time
// series. It never interpolates: a null or misaligned entry fails the whole
// refresh rather than charting a guessed weather value.
package series

import (
	"fmt"
	"sync"
	"time"

	"WeatherDeck/internal/model"
)

// Open-Meteo timestamp layouts: date-only for daily entries, minute
// resolution for hourly ones.
const (
	dailyLayout  = "2006-01-02"
	hourlyLayout = "2006-01-02T15:04"
)

// Normalize converts a raw response into a complete DashboardState for the
// given unit system. now anchors current-conditions derivation and the
// last-refreshed stamp, which keeps the function pure: the same inputs
// always yield a deep-equal state.
func Normalize(raw *model.RawForecastResponse, units model.UnitSystem, now time.Time) (*model.DashboardState, error) {
	if raw == nil {
		return nil, &model.MalformedDataError{Field: "response", Reason: "missing body"}
	}

	// Upstream timestamps are wall-clock strings in the requested timezone,
	// not UTC. Parsing them anywhere else skews every "right now" comparison
	// by the zone offset.
	loc, err := location(raw.Timezone)
	if err != nil {
		return nil, &model.MalformedDataError{Field: "timezone", Reason: err.Error()}
	}

	daily, dailyTimes, err := normalizeBlock("daily", raw.Daily, units, dailyLayout, loc)
	if err != nil {
		return nil, err
	}
	hourly, hourlyTimes, err := normalizeBlock("hourly", raw.Hourly, units, hourlyLayout, loc)
	if err != nil {
		return nil, err
	}

	state := &model.DashboardState{
		Daily:         daily,
		Hourly:        hourly,
		Units:         units,
		LastRefreshed: now,
	}
	state.Current = currentConditions(state, dailyTimes, hourlyTimes, now.In(loc))
	return state, nil
}

// location resolves an IANA zone name, caching so repeated refreshes yield
// identical *time.Location values. An empty name means UTC.
func location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	if v, ok := locations.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	locations.Store(name, loc)
	return loc, nil
}

var locations sync.Map

// normalizeBlock pairs every field sequence of one cadence group with its
// parsed time sequence. Returns the series map plus the shared time axis.
func normalizeBlock(name string, block *model.RawBlock, units model.UnitSystem, layout string, loc *time.Location) (map[string]model.TimeSeries, []time.Time, error) {
	if block == nil {
		return nil, nil, &model.MalformedDataError{Field: name, Reason: "block missing from response"}
	}
	if len(block.Time) == 0 {
		return nil, nil, &model.MalformedDataError{Field: name, Reason: "empty time sequence"}
	}

	timestamps := make([]time.Time, len(block.Time))
	for i, s := range block.Time {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return nil, nil, &model.MalformedDataError{
				Field:  name,
				Reason: fmt.Sprintf("unparseable timestamp %q at index %d", s, i),
			}
		}
		if i > 0 && !t.After(timestamps[i-1]) {
			return nil, nil, &model.MalformedDataError{
				Field:  name,
				Reason: fmt.Sprintf("time sequence not strictly increasing at index %d", i),
			}
		}
		timestamps[i] = t
	}

	out := make(map[string]model.TimeSeries, len(block.Fields))
	for field, raw := range block.Fields {
		if len(raw) != len(timestamps) {
			return nil, nil, &model.MalformedDataError{
				Field:  field,
				Reason: fmt.Sprintf("length %d does not match time sequence length %d", len(raw), len(timestamps)),
			}
		}
		values := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				return nil, nil, &model.MalformedDataError{
					Field:  field,
					Reason: fmt.Sprintf("null entry at index %d", i),
				}
			}
			values[i] = *v
		}
		out[field] = model.TimeSeries{
			Label:      Label(field),
			Unit:       Unit(field, units),
			Timestamps: timestamps,
			Values:     values,
		}
	}
	return out, timestamps, nil
}

// currentConditions extracts the "right now" subset: the first hourly
// temperature at or after now (the request includes past days, so the first
// array element can be weeks old), plus today's daily extremes. now must
// already be in the same location the timestamps were parsed in, so the hour
// floor and the "today" date match are computed on the same wall clock.
func currentConditions(state *model.DashboardState, dailyTimes, hourlyTimes []time.Time, now time.Time) model.CurrentConditions {
	cc := model.CurrentConditions{
		ObservedAt:   now,
		TempUnit:     Unit(model.FieldTemp, state.Units),
		WindUnit:     Unit(model.FieldWindMax, state.Units),
		HumidityUnit: Unit(model.FieldHumidityMean, state.Units),
	}

	if temp, ok := state.Hourly[model.FieldTemp]; ok {
		hourFloor := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		idx := len(hourlyTimes) - 1
		for i, t := range hourlyTimes {
			if !t.Before(hourFloor) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			cc.Temperature = ptr(temp.Values[idx])
			cc.ObservedAt = hourlyTimes[idx]
		}
	}

	today := -1
	for i, t := range dailyTimes {
		if t.Format(dailyLayout) == now.Format(dailyLayout) {
			today = i
			break
		}
	}
	if today < 0 {
		return cc
	}
	if s, ok := state.Daily[model.FieldTempMax]; ok {
		cc.TodayMax = ptr(s.Values[today])
	}
	if s, ok := state.Daily[model.FieldTempMin]; ok {
		cc.TodayMin = ptr(s.Values[today])
	}
	if s, ok := state.Daily[model.FieldWindMax]; ok {
		cc.WindSpeed = ptr(s.Values[today])
	}
	if s, ok := state.Daily[model.FieldHumidityMean]; ok {
		cc.Humidity = ptr(s.Values[today])
	}
	return cc
}

func ptr(v float64) *float64 { return &v }

// Label returns the human-readable name for an upstream field.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

var labels = map[string]string{
	model.FieldTempMax:      "Max Temperature",
	model.FieldTempMin:      "Min Temperature",
	model.FieldTempMean:     "Mean Temperature",
	model.FieldWindMax:      "Max Wind Speed",
	model.FieldWindMin:      "Min Wind Speed",
	model.FieldWindMean:     "Mean Wind Speed",
	model.FieldHumidityMax:  "Max Humidity",
	model.FieldHumidityMin:  "Min Humidity",
	model.FieldHumidityMean: "Mean Humidity",
	model.FieldPrecipSum:    "Precipitation",
	model.FieldRainSum:      "Rain",
	model.FieldTemp:         "Temperature",
}

// Unit returns the presentation unit label for a field under the given unit
// system. Purely presentational: the upstream already returned values in the
// requested units.
func Unit(field string, u model.UnitSystem) string {
	imperial := u == model.UnitImperial
	switch field {
	case model.FieldTempMax, model.FieldTempMin, model.FieldTempMean, model.FieldTemp:
		if imperial {
			return "°F"
		}
		return "°C"
	case model.FieldWindMax, model.FieldWindMin, model.FieldWindMean:
		if imperial {
			return "mph"
		}
		return "km/h"
	case model.FieldHumidityMax, model.FieldHumidityMin, model.FieldHumidityMean:
		return "%"
	case model.FieldPrecipSum, model.FieldRainSum:
		if imperial {
			return "in"
		}
		return "mm"
	}
	return ""
}
