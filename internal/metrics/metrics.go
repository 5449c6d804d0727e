// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WalletTransactions counts wallet ledger operations by type
	// (transfer, settlement, add_funds) and result (ok, error).
	WalletTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finpal",
		Name:      "wallet_transactions_total",
		Help:      "Wallet ledger operations by type and result.",
	}, []string{"type", "result"})

	// Settlements counts settlement coordinator outcomes by path
	// (wallet, manual) and result (settled, requested, approved,
	// rejected, error).
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finpal",
		Name:      "settlements_total",
		Help:      "Settlement coordinator outcomes by path and result.",
	}, []string{"path", "result"})

	// HTTPRequests counts API requests by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finpal",
		Name:      "http_requests_total",
		Help:      "API requests by route and status class.",
	}, []string{"route", "status"})

	// HTTPDuration observes API request latency per route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finpal",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
