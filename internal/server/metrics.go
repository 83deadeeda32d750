package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "relocation_forecast"

var (
	// httpRequests counts handled requests.
	// Labels: route (chi route pattern), method, status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled",
	}, []string{"route", "method", "status"})

	// httpDuration measures request latency.
	// Labels: route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route"})

	// classifiedTransactions counts classifier decisions.
	// Labels: profile, status (Approved, Declined, Flagged)
	classifiedTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "vtc",
		Name:      "transactions_total",
		Help:      "Total transactions classified by decision",
	}, []string{"profile", "status"})

	// projectedScenarios counts evaluated lever combinations.
	// Labels: mode (enumerate, sample)
	projectedScenarios = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "projector",
		Name:      "scenarios_total",
		Help:      "Total lever combinations evaluated",
	}, []string{"mode"})
)
