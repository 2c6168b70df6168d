package meteo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"WeatherDeck/internal/model"
)

const goodBody = `{
	"latitude": 38.25,
	"longitude": -85.76,
	"timezone": "America/New_York",
	"daily": {
		"time": ["2026-08-22", "2026-08-23"],
		"temperature_2m_max": [91.2, 88.5],
		"temperature_2m_min": [70.3, 68.9]
	},
	"hourly": {
		"time": ["2026-08-23T13:00", "2026-08-23T14:00"],
		"temperature_2m": [84.0, 86.2]
	}
}`

func testRequest() model.ForecastRequest {
	return model.ForecastRequest{
		Latitude:     38.2542,
		Longitude:    -85.7594,
		Units:        model.UnitImperial,
		DailyFields:  []string{model.FieldTempMax, model.FieldTempMin},
		HourlyFields: []string{model.FieldTemp},
		PastDays:     31,
		ForecastDays: 7,
		Timezone:     "America/New_York",
	}
}

func TestFetch_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(goodBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	raw, err := c.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Daily == nil || len(raw.Daily.Time) != 2 {
		t.Fatalf("expected 2 daily entries, got %+v", raw.Daily)
	}
	vals, ok := raw.Daily.Fields[model.FieldTempMax]
	if !ok || len(vals) != 2 || vals[1] == nil || *vals[1] != 88.5 {
		t.Errorf("unexpected temperature_2m_max values: %+v", vals)
	}
	if raw.Hourly == nil || len(raw.Hourly.Fields[model.FieldTemp]) != 2 {
		t.Errorf("unexpected hourly block: %+v", raw.Hourly)
	}
}

func TestFetch_JoinsForecastPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(goodBody))
	}))
	defer srv.Close()

	// Host-only base URL, as the shipped config defaults to.
	c := NewClient(srv.URL, 2*time.Second)
	if _, err := c.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/forecast" {
		t.Errorf("expected /v1/forecast for host-only base URL, got %q", gotPath)
	}

	// Base URL already carrying the endpoint path must not double it.
	c = NewClient(srv.URL+"/v1/forecast", 2*time.Second)
	if _, err := c.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/forecast" {
		t.Errorf("expected /v1/forecast for full base URL, got %q", gotPath)
	}
}

func TestFetch_QueryParameters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(goodBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if _, err := c.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		param string
		want  string
	}{
		{"latitude", "38.2542"},
		{"longitude", "-85.7594"},
		{"daily", "temperature_2m_max,temperature_2m_min"},
		{"hourly", "temperature_2m"},
		{"timezone", "America/New_York"},
		{"temperature_unit", "fahrenheit"},
		{"wind_speed_unit", "mph"},
		{"precipitation_unit", "inch"},
		{"past_days", "31"},
		{"forecast_days", "7"},
	}
	for _, tt := range tests {
		if v := got.Get(tt.param); v != tt.want {
			t.Errorf("param %s: expected %q, got %q", tt.param, tt.want, v)
		}
	}
}

func TestFetch_MetricUnitParameters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(goodBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if _, err := c.Fetch(context.Background(), testRequest().WithUnits(model.UnitMetric)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Get("temperature_unit") != "celsius" || got.Get("wind_speed_unit") != "kmh" || got.Get("precipitation_unit") != "mm" {
		t.Errorf("unexpected metric unit params: %v", got)
	}
}

func TestFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":true,"reason":"overloaded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.Fetch(context.Background(), testRequest())
	var ue *model.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", ue.Status)
	}
}

func TestFetch_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.Fetch(context.Background(), testRequest())
	var ue *model.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for unparseable body, got %v", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(goodBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, err := c.Fetch(context.Background(), testRequest())
	var te *model.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestFetch_NonIncreasingTimeAxis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"daily": {"time": ["2026-08-23", "2026-08-22"], "temperature_2m_max": [1, 2]},
			"hourly": {"time": ["2026-08-23T13:00"], "temperature_2m": [84.0]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.Fetch(context.Background(), testRequest())
	var mde *model.MalformedDataError
	if !errors.As(err, &mde) {
		t.Fatalf("expected MalformedDataError, got %v", err)
	}
	if mde.Field != "daily" {
		t.Errorf("expected field daily, got %q", mde.Field)
	}
}

func TestFetch_InvalidRequestRejectedLocally(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Second)
	req := testRequest()
	req.Latitude = 120

	if _, err := c.Fetch(context.Background(), req); err == nil {
		t.Fatal("expected validation error for latitude out of range")
	}
}

func TestRateLimitedFetcher_ForwardsAndNames(t *testing.T) {
	mock := &MockFetcher{}
	rl := NewRateLimitedFetcher(mock, 100, 1)

	raw, err := rl.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == nil || raw.Daily == nil {
		t.Fatal("expected generated payload through the limiter")
	}
	if rl.Name() == "" {
		t.Error("expected a non-empty name")
	}
}

func TestRateLimitedFetcher_CanceledContext(t *testing.T) {
	mock := &MockFetcher{}
	rl := NewRateLimitedFetcher(mock, 0.001, 1)

	// Exhaust the burst token, then cancel while waiting for the next.
	if _, err := rl.Fetch(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := rl.Fetch(ctx, testRequest()); err == nil {
		t.Fatal("expected error when limiter wait is canceled")
	}
}
