// Package metrics exposes Prometheus instrumentation for the refresh
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes used as label values.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherdeck_refresh_total",
		Help: "Completed refresh attempts by outcome.",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "weatherdeck_refresh_duration_seconds",
		Help:    "Wall time of one fetch-normalize-publish cycle.",
		Buckets: prometheus.DefBuckets,
	})

	lastRefreshed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherdeck_last_refresh_timestamp_seconds",
		Help: "Unix time of the last successful refresh.",
	})
)

// ObserveRefresh records one completed refresh attempt.
func ObserveRefresh(outcome string, d time.Duration) {
	refreshTotal.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(d.Seconds())
}

// SetLastRefreshed records the time of the last successful refresh.
func SetLastRefreshed(t time.Time) {
	lastRefreshed.Set(float64(t.Unix()))
}
