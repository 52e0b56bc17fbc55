package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsDetected *prometheus.CounterVec
	eventsSent     *prometheus.CounterVec
	quotesFetched  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwire_events_detected_total",
				Help: "Detected events by type and severity",
			},
			[]string{"type", "severity"},
		),
		eventsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwire_events_sent_total",
				Help: "Events routed to a backend",
			},
			[]string{"backend", "symbol"},
		),
		quotesFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwire_quotes_fetched_total",
				Help: "Successful quote fetches per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwire_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketwire_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketwire_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventDetected records a detected event.
func (r *Recorder) RecordEventDetected(eventType, severity string) {
	r.eventsDetected.WithLabelValues(eventType, severity).Inc()
}

// RecordEventSent records an event routed to a backend.
func (r *Recorder) RecordEventSent(backend, symbol string) {
	r.eventsSent.WithLabelValues(backend, symbol).Inc()
}

// RecordQuoteFetched records a successful quote fetch.
func (r *Recorder) RecordQuoteFetched(symbol string) {
	r.quotesFetched.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
