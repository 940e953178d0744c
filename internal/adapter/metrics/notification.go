package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics tracks the polling loop and local mutations.
type NotificationMetrics struct {
	Polls     *prometheus.CounterVec
	Unread    prometheus.Gauge
	Mutations *prometheus.CounterVec
}

// NewNotificationMetrics creates and registers notification metrics on the given registry.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "polls_total",
			Help:      "Total number of notification fetches, by result (ok, error, dropped).",
		}, []string{"result"}),
		Unread: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "unread",
			Help:      "Unread count as last held locally.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "mutations_total",
			Help:      "Total number of notification mutations, by operation and result.",
		}, []string{"operation", "result"}),
	}

	reg.MustRegister(m.Polls, m.Unread, m.Mutations)
	return m
}

func (m *NotificationMetrics) Poll(result string) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(result).Inc()
}

func (m *NotificationMetrics) SetUnread(n int) {
	if m == nil {
		return
	}
	m.Unread.Set(float64(n))
}

func (m *NotificationMetrics) Mutation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Mutations.WithLabelValues(operation, result).Inc()
}
