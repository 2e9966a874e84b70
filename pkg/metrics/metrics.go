package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProviderRequestDuration tracks the duration of outbound provider calls
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klarna_provider_request_duration_seconds",
			Help:    "Time spent on provider checkout-order requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// SessionsTotal counts transaction-initialize sessions by terminal outcome
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klarna_transaction_sessions_total",
			Help: "Transaction initialize sessions by outcome",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks the number of sessions currently in flight
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "klarna_active_sessions",
			Help: "Number of sessions currently being processed",
		},
	)
)

// Outcome labels used across the session and provider metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Register registers the bridge metrics on the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(ProviderRequestDuration)
	reg.MustRegister(SessionsTotal)
	reg.MustRegister(ActiveSessions)
	reg.MustRegister(RuntimeGauges)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
