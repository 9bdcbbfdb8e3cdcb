package observability

import (
	"errors"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the estimate service.
type Metrics struct {
	Requests      *prometheus.CounterVec   // labels: outcome={complete,retry,invalid,error}
	StageDuration *prometheus.HistogramVec // labels: stage

	// Reconciliation outcomes.
	MeasurementSource *prometheus.CounterVec // labels: source
	PitchSource       *prometheus.CounterVec // labels: source
	OpeningDetections *prometheus.CounterVec // labels: outcome={success,failure,oversized,unconfigured}

	// Third-party calls.
	UpstreamCalls    *prometheus.CounterVec   // labels: service, outcome={success,error,timeout,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: service
	GeocodeCache     *prometheus.CounterVec   // labels: result={hit,miss}
	FootprintCache   *prometheus.CounterVec   // labels: result={hit,miss,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Requests,
		m.StageDuration,
		m.MeasurementSource,
		m.PitchSource,
		m.OpeningDetections,
		m.UpstreamCalls,
		m.UpstreamDuration,
		m.GeocodeCache,
		m.FootprintCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "requests_total",
			Help:      "Estimate requests by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "remodel",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each orchestration stage.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		MeasurementSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "measurement_source_total",
			Help:      "Building measurements by the strategy that produced them.",
		}, []string{"source"}),
		PitchSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "pitch_source_total",
			Help:      "Roof pitch determinations by image source.",
		}, []string{"source"}),
		OpeningDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "opening_detections_total",
			Help:      "Per-photo window/door detection attempts by outcome.",
		}, []string{"outcome"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "upstream_calls_total",
			Help:      "Third-party API calls by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "remodel",
			Name:      "upstream_duration_seconds",
			Help:      "Third-party API call duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		FootprintCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remodel",
			Name:      "footprint_cache_total",
			Help:      "Footprint cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveUpstream records the outcome and duration of a third-party call.
func (m *Metrics) ObserveUpstream(service string, start time.Time, err error) {
	m.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	outcome := "success"
	switch {
	case errors.Is(err, upstream.ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	m.UpstreamCalls.WithLabelValues(service, outcome).Inc()
}
