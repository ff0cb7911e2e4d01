package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CarrierErrors   *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	PollCyclesTotal prometheus.Counter
	ActiveTracked   prometheus.Gauge
}

// NewMetrics creates Prometheus metrics on the given registerer. Passing
// nil registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipping_requests_total",
				Help: "Total number of requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipping_request_duration_seconds",
				Help:    "Request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipping_carrier_errors_total",
				Help: "Total carrier API errors by carrier and error type",
			},
			[]string{"carrier", "error_type"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipping_cache_lookups_total",
				Help: "Cache lookups by kind (rates, tracking) and outcome (hit, miss, error)",
			},
			[]string{"kind", "outcome"},
		),
		PollCyclesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shipping_poll_cycles_total",
				Help: "Total tracking poll cycles executed",
			},
		),
		ActiveTracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shipping_active_tracking_registrations",
				Help: "Number of shipments currently registered for background polling",
			},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, errorType string) {
	m.CarrierErrors.WithLabelValues(carrier, errorType).Inc()
}

// RecordCacheLookup records a cache lookup outcome.
func (m *Metrics) RecordCacheLookup(kind, outcome string) {
	m.CacheLookups.WithLabelValues(kind, outcome).Inc()
}
