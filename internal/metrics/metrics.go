// Package metrics exposes Prometheus collectors for ledger writes, balance
// computation and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fkhayef/groupledger/internal/apperr"
)

const namespace = "groupledger"

// Metrics groups every collector the service records.
type Metrics struct {
	ledgerWrites   *prometheus.CounterVec
	balanceCompute prometheus.Histogram
	balanceCache   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ledgerWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Ledger mutations by entity, operation and outcome kind.",
		}, []string{"entity", "op", "outcome"}),
		balanceCompute: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_compute_seconds",
			Help:      "Time spent loading a group snapshot and computing its balances.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		balanceCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_cache_lookups_total",
			Help:      "Balance cache lookups by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// LedgerWrite records the outcome of one ledger mutation.
func (m *Metrics) LedgerWrite(entity, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	m.ledgerWrites.WithLabelValues(entity, op, outcome).Inc()
}

// BalanceComputed records how long one recomputation took.
func (m *Metrics) BalanceComputed(d time.Duration) {
	if m == nil {
		return
	}
	m.balanceCompute.Observe(d.Seconds())
}

// BalanceCache records a cache hit or miss.
func (m *Metrics) BalanceCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.balanceCache.WithLabelValues(result).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
