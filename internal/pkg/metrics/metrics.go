package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchesDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto_tracker",
		Name:      "fetches_dispatched_total",
		Help:      "Background fetches started, by category.",
	}, []string{"category"})

	FetchesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto_tracker",
		Name:      "fetches_rejected_total",
		Help:      "Fetch starts ignored because one was already pending, by category.",
	}, []string{"category"})

	FetchesCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto_tracker",
		Name:      "fetches_completed_total",
		Help:      "Background fetches applied, by category and outcome.",
	}, []string{"category", "outcome"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crypto_tracker",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of price API requests, by status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	NetWorthUSD = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "crypto_tracker",
		Name:      "portfolio_net_worth_usd",
		Help:      "Net worth computed by the last overview refresh.",
	})

	CostBasisUSD = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "crypto_tracker",
		Name:      "portfolio_cost_basis_usd",
		Help:      "Cost basis computed by the last overview refresh.",
	})
)

var registerOnce sync.Once

// MustRegisterMetrics registers every collector with the default registry. Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FetchesDispatched,
			FetchesRejected,
			FetchesCompleted,
			UpstreamRequestDuration,
			NetWorthUSD,
			CostBasisUSD,
		)
	})
}

// StatusClass buckets an HTTP status code for the duration histogram.
func StatusClass(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
