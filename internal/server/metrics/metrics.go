// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of an auth operation.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

type Metrics struct {
	authOperations  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		authOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_auth_operations_total",
			Help: "Total number of account operations by outcome",
		}, []string{"operation", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gophauth_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) RecordOperation(operation, outcome string) {
	m.authOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
