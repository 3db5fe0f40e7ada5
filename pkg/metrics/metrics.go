package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homefolio_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PropertySearches counts property search executions by sort mode.
	PropertySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homefolio_property_searches_total",
			Help: "Total number of property search queries",
		},
		[]string{"sort"},
	)

	// WalletDeposits counts payment verification outcomes (credited|duplicate|rejected).
	WalletDeposits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homefolio_wallet_deposits_total",
			Help: "Total number of wallet deposit verification attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homefolio_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
