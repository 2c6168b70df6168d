package meteo

import (
	"context"
	"fmt"

	"WeatherDeck/internal/model"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps a Fetcher with client-side rate limiting so that
// manual refresh mashing cannot hammer the upstream API. The limiter only
// delays requests; errors from the wrapped fetcher pass through untouched.
type RateLimitedFetcher struct {
	fetcher Fetcher
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedFetcher creates a rate limited fetcher.
// rps is the sustained requests per second (fractional values allowed),
// burst the maximum burst size.
func NewRateLimitedFetcher(fetcher Fetcher, rps float64, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [rate limited]", fetcher.Name()),
	}
}

// Fetch waits for limiter permission, then forwards to the wrapped fetcher.
func (r *RateLimitedFetcher) Fetch(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.fetcher.Fetch(ctx, req)
}

// Name returns the fetcher name.
func (r *RateLimitedFetcher) Name() string { return r.name }

var _ Fetcher = (*RateLimitedFetcher)(nil)
