// Package metrics records bootstrap instrumentation on a Prometheus registry.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// guard their calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Degraded lookup kinds.
const (
	LookupHost  = "host"
	LookupQueue = "queue"
)

// Metrics holds the bootstrap collectors.
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration   *prometheus.HistogramVec
	phaseSkipped    *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	degraded        *prometheus.CounterVec
	published       *prometheus.GaugeVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocket_bootstrap_phase_duration_seconds",
				Help:    "Duration of bootstrap phases in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"phase", "outcome"},
		),

		phaseSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocket_bootstrap_phase_skipped_total",
				Help: "Bootstrap phases skipped because they already ran",
			},
			[]string{"phase"},
		),

		backendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocket_backend_requests_total",
				Help: "Calls made to cloud backends",
			},
			[]string{"service", "operation", "outcome"},
		),

		backendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocket_backend_request_duration_seconds",
				Help:    "Latency of cloud backend calls in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"service", "operation"},
		),

		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocket_resource_lookup_degraded_total",
				Help: "Resource lookups that failed and were left absent",
			},
			[]string{"kind"},
		),

		published: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pocket_env_entries_published",
				Help: "Environment entries published by the last bootstrap phase",
			},
			[]string{"phase"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePhase records how long a phase took.
func (m *Metrics) ObservePhase(phase string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase, outcome(err)).Observe(time.Since(start).Seconds())
}

// PhaseSkipped counts a phase that did not run.
func (m *Metrics) PhaseSkipped(phase string) {
	if m == nil {
		return
	}
	m.phaseSkipped.WithLabelValues(phase).Inc()
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(service, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(service, operation, outcome(err)).Inc()
	m.backendDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

// LookupDegraded counts a host or queue lookup that was left absent.
func (m *Metrics) LookupDegraded(kind string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(kind).Inc()
}

// Published records how many entries a phase wrote to the sink.
func (m *Metrics) Published(phase string, n int) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(phase).Set(float64(n))
}

// WriteToTextfile writes all collected metrics to path in the text
// exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
