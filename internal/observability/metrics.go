package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for request accounting.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeOversize  = "oversize"
	OutcomeBadMethod = "bad_method"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

// Metrics holds the collector's Prometheus counters. Every handled request
// lands in exactly one outcome bucket; appendFailures counts records lost
// to failed writes.
type Metrics struct {
	requests       *prometheus.CounterVec
	appendFailures prometheus.Counter
}

// NewMetrics builds and registers the counters on the default registry.
// Re-registration (e.g. across tests) reuses the existing collectors.
func NewMetrics() *Metrics {
	m := &Metrics{}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pdfjs",
		Subsystem: "telemetry",
		Name:      "requests_total",
		Help:      "Count of handled requests by outcome",
	}, []string{"outcome"})
	if err := prometheus.Register(m.requests); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.requests = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	m.appendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pdfjs",
		Subsystem: "telemetry",
		Name:      "append_failures_total",
		Help:      "Count of records lost to log append failures",
	})
	if err := prometheus.Register(m.appendFailures); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.appendFailures = already.ExistingCollector.(prometheus.Counter)
		}
	}

	return m
}

// RecordRequest counts one handled request under the given outcome.
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// RecordAppendFailure counts one record lost to a failed append.
func (m *Metrics) RecordAppendFailure() {
	if m == nil {
		return
	}
	m.appendFailures.Inc()
}

// OutcomeForStatus maps a response status to its outcome label. Handlers
// record accepted/rejected/failed themselves; this covers the statuses the
// error handler produces.
func OutcomeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return OutcomeNotFound
	case http.StatusMethodNotAllowed:
		return OutcomeBadMethod
	case http.StatusRequestEntityTooLarge:
		return OutcomeOversize
	case http.StatusBadRequest:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
