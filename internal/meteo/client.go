package meteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"WeatherDeck/internal/model"
)

// DefaultBaseURL is the public Open-Meteo API host.
const DefaultBaseURL = "https://api.open-meteo.com"

// forecastPath is joined onto the base URL unless already present, so both
// host-only and full-endpoint base URLs work.
const forecastPath = "/v1/forecast"

// Fetcher defines the interface for fetching raw forecast data.
type Fetcher interface {
	Fetch(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error)
	Name() string
}

// Client implements Fetcher against the Open-Meteo forecast API.
type Client struct {
	BaseURL string
	Client  *http.Client
	timeout time.Duration
}

// NewClient creates an Open-Meteo client with the given per-request time
// budget. An empty baseURL selects the public endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (c *Client) Name() string { return "open-meteo" }

// unitParams maps the unit system to the upstream query parameter values.
// Conversion happens upstream; the dashboard never re-converts numbers.
func unitParams(u model.UnitSystem) (tempUnit, windUnit, precipUnit string) {
	if u == model.UnitImperial {
		return "fahrenheit", "mph", "inch"
	}
	return "celsius", "kmh", "mm"
}

// Fetch issues one GET for the requested daily and hourly fields and decodes
// the response. Failures map to the declared error kinds: bad status or an
// unparseable body to *model.UpstreamError, an exceeded time budget to
// *model.TimeoutError, and a structurally broken payload to
// *model.MalformedDataError. Nothing is retried here.
func (c *Client) Fetch(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast request: %w", err)
	}

	tempUnit, windUnit, precipUnit := unitParams(req.Units)

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', 4, 64))
	params.Set("daily", strings.Join(req.DailyFields, ","))
	params.Set("hourly", strings.Join(req.HourlyFields, ","))
	params.Set("timezone", req.Timezone)
	params.Set("temperature_unit", tempUnit)
	params.Set("wind_speed_unit", windUnit)
	params.Set("precipitation_unit", precipUnit)
	if req.PastDays > 0 {
		params.Set("past_days", strconv.Itoa(req.PastDays))
	}
	if req.ForecastDays > 0 {
		params.Set("forecast_days", strconv.Itoa(req.ForecastDays))
	}

	endpoint := strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(endpoint, forecastPath) {
		endpoint += forecastPath
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &model.TimeoutError{Budget: c.timeout}
		}
		return nil, fmt.Errorf("forecast fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &model.TimeoutError{Budget: c.timeout}
		}
		return nil, fmt.Errorf("forecast read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.UpstreamError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var raw model.RawForecastResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &model.UpstreamError{Status: resp.StatusCode, Body: snippet(body)}
	}

	if err := checkTimeAxes(&raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// checkTimeAxes enforces the fetch postcondition: both cadence groups carry a
// non-empty, strictly increasing time sequence.
func checkTimeAxes(raw *model.RawForecastResponse) error {
	for _, group := range []struct {
		name  string
		block *model.RawBlock
	}{
		{"daily", raw.Daily},
		{"hourly", raw.Hourly},
	} {
		if group.block == nil || len(group.block.Time) == 0 {
			return &model.MalformedDataError{Field: group.name, Reason: "missing or empty time sequence"}
		}
		// ISO-8601 strings order lexicographically; full parsing is the
		// normalizer's job.
		for i := 1; i < len(group.block.Time); i++ {
			if group.block.Time[i] <= group.block.Time[i-1] {
				return &model.MalformedDataError{
					Field:  group.name,
					Reason: fmt.Sprintf("time sequence not strictly increasing at index %d", i),
				}
			}
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

const snippetLimit = 256

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLimit {
		s = s[:snippetLimit] + "..."
	}
	return s
}
