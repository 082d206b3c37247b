package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomid_sdk_build_info",
			Help: "Build information of the AtomID SDK binaries",
		},
		[]string{"version", "commit", "date"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomid_sdk_cache_lookups_total",
			Help: "Total number of verification cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	LedgerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomid_sdk_ledger_requests_total",
			Help: "Total number of ledger RPC requests",
		},
		[]string{"method", "status"},
	)

	LedgerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atomid_sdk_ledger_request_duration_seconds",
			Help:    "Duration of ledger RPC requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
		[]string{"method"},
	)

	DecodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomid_sdk_decode_failures_total",
			Help: "Total number of account records that failed to decode",
		},
		[]string{"source"}, // "verify", "leaderboard"
	)
)

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// RecordLedgerRequest records metrics for a ledger RPC request.
func RecordLedgerRequest(method string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LedgerRequestsTotal.WithLabelValues(method, status).Inc()
	LedgerRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
