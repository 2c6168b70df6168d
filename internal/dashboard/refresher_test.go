package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"WeatherDeck/internal/meteo"
	"WeatherDeck/internal/model"
)

// fetchFunc adapts a function to the Fetcher interface for tests that need
// per-call behavior.
type fetchFunc func(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error)

func (f fetchFunc) Fetch(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
	return f(ctx, req)
}
func (f fetchFunc) Name() string { return "test" }

func testRequest() model.ForecastRequest {
	return model.ForecastRequest{
		Latitude:     38.2542,
		Longitude:    -85.7594,
		Units:        model.UnitImperial,
		DailyFields:  model.DefaultDailyFields(),
		HourlyFields: model.DefaultHourlyFields(),
		PastDays:     3,
		ForecastDays: 3,
		Timezone:     "America/New_York",
	}
}

func TestRefreshOnce_PublishesState(t *testing.T) {
	cell := NewStateCell()
	notified := 0
	r := NewRefresher(&meteo.MockFetcher{}, cell, testRequest(), time.Second, func() { notified++ })

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, ok := cell.Snapshot()
	if !ok {
		t.Fatal("expected state after successful refresh")
	}
	if state.Units != model.UnitImperial {
		t.Errorf("expected imperial units, got %s", state.Units)
	}
	if len(state.Daily) == 0 || len(state.Hourly) == 0 {
		t.Errorf("expected populated series maps, got %d daily %d hourly", len(state.Daily), len(state.Hourly))
	}
	if notified != 1 {
		t.Errorf("expected 1 notification, got %d", notified)
	}
	if err, _ := cell.LastError(); err != nil {
		t.Errorf("expected cleared error, got %v", err)
	}
}

func TestRefreshOnce_FailureKeepsPreviousState(t *testing.T) {
	cell := NewStateCell()
	mock := &meteo.MockFetcher{}
	r := NewRefresher(mock, cell, testRequest(), time.Second, nil)

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := cell.Snapshot()

	mock.Err = errors.New("upstream down")
	if err := r.RefreshOnce(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	after, ok := cell.Snapshot()
	if !ok || after != before {
		t.Error("expected failed refresh to leave previous state in place")
	}
	if err, at := cell.LastError(); err == nil || at.IsZero() {
		t.Error("expected failure to be recorded with a timestamp")
	}
}

func TestRefreshOnce_SupersededResultDiscarded(t *testing.T) {
	cell := NewStateCell()
	var r *Refresher
	fetcher := fetchFunc(func(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
		// Unit toggle lands while this fetch is in flight.
		r.SetUnits(model.UnitMetric)
		return meteo.GenerateRaw(req, 6, 24), nil
	})
	r = NewRefresher(fetcher, cell, testRequest(), time.Second, nil)

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cell.Snapshot(); ok {
		t.Error("expected stale imperial result to be discarded, not published")
	}
	if r.Request().Units != model.UnitMetric {
		t.Errorf("expected request switched to metric, got %s", r.Request().Units)
	}
	// The toggle left a pending signal; the next cycle refreshes in metric.
	if len(r.kick) != 1 {
		t.Errorf("expected pending refresh signal, got queue depth %d", len(r.kick))
	}
}

func TestTrigger_CoalescesSignals(t *testing.T) {
	r := NewRefresher(&meteo.MockFetcher{}, NewStateCell(), testRequest(), time.Second, nil)
	for i := 0; i < 5; i++ {
		r.Trigger()
	}
	if len(r.kick) != 1 {
		t.Errorf("expected 5 triggers to coalesce into 1 pending signal, got %d", len(r.kick))
	}
}

func TestSetUnits_NoopWhenUnchanged(t *testing.T) {
	r := NewRefresher(&meteo.MockFetcher{}, NewStateCell(), testRequest(), time.Second, nil)
	r.SetUnits(model.UnitImperial)
	if len(r.kick) != 0 {
		t.Error("expected no refresh signal for unchanged units")
	}
	r.SetUnits(model.UnitMetric)
	if len(r.kick) != 1 {
		t.Error("expected refresh signal after unit change")
	}
}

func TestRegisterInterval_BadSpec(t *testing.T) {
	r := NewRefresher(&meteo.MockFetcher{}, NewStateCell(), testRequest(), time.Second, nil)
	if err := r.RegisterInterval("not a cron spec"); err == nil {
		t.Fatal("expected error for invalid interval spec")
	}
	if err := r.RegisterInterval("@every 15m"); err != nil {
		t.Fatalf("unexpected error for valid spec: %v", err)
	}
}

func TestRunLoop_DoubleSignalSingleFetch(t *testing.T) {
	cell := NewStateCell()
	var fetches int32
	fetcher := fetchFunc(func(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
		atomic.AddInt32(&fetches, 1)
		return meteo.GenerateRaw(req, 6, 24), nil
	})
	published := make(chan struct{}, 4)
	r := NewRefresher(fetcher, cell, testRequest(), time.Second, func() { published <- struct{}{} })

	// Two signals land back to back before the loop runs: they must coalesce
	// into one fetch and one state publish.
	r.Trigger()
	r.Trigger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh loop did not publish")
	}
	// Give an erroneous second cycle time to show up.
	time.Sleep(100 * time.Millisecond)

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("expected exactly 1 fetch for 2 signals, got %d", n)
	}
	if len(published) != 0 {
		t.Errorf("expected exactly 1 publish, got %d extra", len(published))
	}
}

func TestRunLoop_ProcessesTrigger(t *testing.T) {
	cell := NewStateCell()
	done := make(chan struct{})
	fetcher := fetchFunc(func(ctx context.Context, req model.ForecastRequest) (*model.RawForecastResponse, error) {
		defer close(done)
		return meteo.GenerateRaw(req, 6, 24), nil
	})
	r := NewRefresher(fetcher, cell, testRequest(), time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	r.Trigger()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh loop did not pick up trigger")
	}
}
