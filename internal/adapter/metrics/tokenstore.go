package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TokenStoreMetrics tracks reads and writes of the persisted session token.
type TokenStoreMetrics struct {
	OpsTotal   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec
}

// NewTokenStoreMetrics creates and registers token store metrics on the given registry.
func NewTokenStoreMetrics(reg prometheus.Registerer) *TokenStoreMetrics {
	m := &TokenStoreMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token_store",
			Name:      "operations_total",
			Help:      "Token store operations, by backend, operation and status.",
		}, []string{"backend", "operation", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token_store",
			Name:      "operation_duration_seconds",
			Help:      "Token store operation duration in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"backend", "operation"}),
	}

	reg.MustRegister(m.OpsTotal, m.OpDuration)
	return m
}

// Observe records one operation. status is "ok", "miss" or "error".
func (m *TokenStoreMetrics) Observe(backend, operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OpsTotal.WithLabelValues(backend, operation, status).Inc()
	m.OpDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}
