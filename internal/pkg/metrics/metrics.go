// Package metrics holds the Prometheus collectors of the lending service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "equiplend"

// Metrics groups all collectors. A nil *Metrics records nothing.
type Metrics struct {
	// admission
	AdmissionsTotal *prometheus.CounterVec

	// lifecycle
	TransitionsTotal *prometheus.CounterVec
	OverdueRequests  prometheus.Gauge

	// http
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AdmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admissions_total",
				Help:      "Borrow request admission attempts by outcome",
			},
			[]string{"outcome"},
		),
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Borrow request status transitions by target status",
			},
			[]string{"status"},
		),
		OverdueRequests: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "overdue_requests",
				Help:      "Approved requests past their due date at the last overdue scan",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
	}
}

// Admission outcomes
const (
	OutcomeAdmitted    = "admitted"
	OutcomeUnavailable = "unavailable"
	OutcomeCapacity    = "capacity_exceeded"
	OutcomeRejected    = "invalid"
)

// ObserveAdmission counts one admission attempt
func (m *Metrics) ObserveAdmission(outcome string) {
	if m == nil {
		return
	}
	m.AdmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts one status change
func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(status).Inc()
}

// SetOverdue records the size of the latest overdue scan
func (m *Metrics) SetOverdue(n int) {
	if m == nil {
		return
	}
	m.OverdueRequests.Set(float64(n))
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
