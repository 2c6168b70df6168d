package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"WeatherDeck/internal/meteo"
	"WeatherDeck/internal/metrics"
	"WeatherDeck/internal/model"
	"WeatherDeck/internal/series"

	"github.com/robfig/cron/v3"
)

// Refresher runs the refresh pipeline: fetch raw forecast data, normalize it,
// publish the result into the state cell. Signals arrive from a cron interval
// job, from user action, or from a unit toggle, and coalesce through a
// depth-1 channel, so at most one fetch is ever in flight and a burst of
// signals causes a single refresh. If the desired request changes while a
// fetch is outstanding (unit toggle), the stale result is discarded and the
// pending signal refreshes with the new request: the latest completed fetch
// for the current request wins.
type Refresher struct {
	fetcher meteo.Fetcher
	cell    *StateCell
	cron    *cron.Cron
	timeout time.Duration
	notify  func() // invoked after each successful publish; may be nil

	mu  sync.Mutex
	req model.ForecastRequest

	kick chan struct{}
}

// NewRefresher creates a refresher for the given base request. timeout is the
// per-fetch budget; notify, when non-nil, is called after every successful
// state publish (used to wake connected dashboard pages).
func NewRefresher(fetcher meteo.Fetcher, cell *StateCell, req model.ForecastRequest, timeout time.Duration, notify func()) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		cell:    cell,
		cron:    cron.New(),
		timeout: timeout,
		notify:  notify,
		req:     req,
		kick:    make(chan struct{}, 1),
	}
}

// RegisterInterval schedules periodic refresh signals. spec is a cron
// expression or an @every duration, e.g. "@every 15m".
func (r *Refresher) RegisterInterval(spec string) error {
	if _, err := r.cron.AddFunc(spec, r.Trigger); err != nil {
		return fmt.Errorf("register refresh interval: %w", err)
	}
	return nil
}

// Start launches the refresh loop and the interval scheduler. The loop exits
// when ctx is canceled.
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
	r.cron.Start()
	log.Println("[INFO] refresher started")
}

// Stop halts the interval scheduler. An in-flight refresh finishes on its
// own; its result is still published unless superseded.
func (r *Refresher) Stop() {
	r.cron.Stop()
	log.Println("[INFO] refresher stopped")
}

// Trigger requests a refresh. Non-blocking: if a signal is already pending it
// is coalesced, the queue has depth one and the newest request state wins.
func (r *Refresher) Trigger() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// SetUnits switches the desired unit system and triggers a refresh with the
// updated request. Unit conversion happens upstream, so this is a full fetch,
// not a client-side re-render.
func (r *Refresher) SetUnits(u model.UnitSystem) {
	r.mu.Lock()
	changed := r.req.Units != u
	r.req = r.req.WithUnits(u)
	r.mu.Unlock()
	if changed {
		log.Printf("[INFO] unit system switched to %s", u)
		r.Trigger()
	}
}

// Request returns the current desired forecast request.
func (r *Refresher) Request() model.ForecastRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req
}

func (r *Refresher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
			if err := r.RefreshOnce(ctx); err != nil {
				log.Printf("[ERROR] refresh failed: %v", err)
			}
		}
	}
}

// RefreshOnce executes one fetch-normalize-publish cycle for the request as
// desired at call time. On any failure the state cell keeps its previous
// state and only records the error.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.mu.Lock()
	req := r.req
	r.mu.Unlock()

	start := time.Now()
	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	raw, err := r.fetcher.Fetch(fctx, req)
	cancel()
	if err != nil {
		r.cell.RecordFailure(err)
		metrics.ObserveRefresh(metrics.OutcomeError, time.Since(start))
		return fmt.Errorf("fetch forecast: %w", err)
	}

	state, err := series.Normalize(raw, req.Units, time.Now())
	if err != nil {
		r.cell.RecordFailure(err)
		metrics.ObserveRefresh(metrics.OutcomeError, time.Since(start))
		return fmt.Errorf("normalize forecast: %w", err)
	}

	// The desired request may have moved on (unit toggle) while this fetch
	// was in flight. The pending signal will refresh with the new request;
	// publishing this result would briefly show the wrong units.
	r.mu.Lock()
	superseded := !r.req.Equal(req)
	r.mu.Unlock()
	if superseded {
		metrics.ObserveRefresh(metrics.OutcomeSuperseded, time.Since(start))
		log.Printf("[INFO] discarding superseded refresh result (units %s)", req.Units)
		return nil
	}

	r.cell.Replace(state)
	metrics.ObserveRefresh(metrics.OutcomeSuccess, time.Since(start))
	metrics.SetLastRefreshed(state.LastRefreshed)
	if r.notify != nil {
		r.notify()
	}
	log.Printf("[INFO] dashboard state refreshed: %d daily series, %d hourly series, units=%s, took %s",
		len(state.Daily), len(state.Hourly), state.Units, time.Since(start).Round(time.Millisecond))
	return nil
}
