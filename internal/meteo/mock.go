package meteo

import (
	"context"
	"time"

	"WeatherDeck/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Response *model.RawForecastResponse
	Err      error
}

func (m *MockFetcher) Name() string { return "mock" }

// Fetch returns the configured error or response; with neither set it
// generates a plausible payload sized like a real one.
func (m *MockFetcher) Fetch(_ context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	days := req.PastDays + req.ForecastDays
	if days == 0 {
		days = 7
	}
	return GenerateRaw(req, days, 24), nil
}

// GenerateRaw builds a synthetic response with the requested fields, `days`
// daily entries and `hours` hourly entries, anchored so "today" is the last
// past day.
func GenerateRaw(req model.ForecastRequest, days, hours int) *model.RawForecastResponse {
	start := time.Now().AddDate(0, 0, -req.PastDays)

	daily := &model.RawBlock{Fields: make(map[string][]*float64)}
	for i := 0; i < days; i++ {
		daily.Time = append(daily.Time, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	for _, f := range req.DailyFields {
		vals := make([]*float64, days)
		for i := range vals {
			v := 50 + float64(i%10)
			vals[i] = &v
		}
		daily.Fields[f] = vals
	}

	hourly := &model.RawBlock{Fields: make(map[string][]*float64)}
	hourStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < hours; i++ {
		hourly.Time = append(hourly.Time, hourStart.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04"))
	}
	for _, f := range req.HourlyFields {
		vals := make([]*float64, hours)
		for i := range vals {
			v := 45 + float64(i%12)
			vals[i] = &v
		}
		hourly.Fields[f] = vals
	}

	return &model.RawForecastResponse{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Timezone:  req.Timezone,
		Daily:     daily,
		Hourly:    hourly,
	}
}

var _ Fetcher = (*MockFetcher)(nil)
