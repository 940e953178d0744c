package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics counts session state transitions.
type SessionMetrics struct {
	Transitions *prometheus.CounterVec
}

// NewSessionMetrics creates and registers session metrics on the given registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total number of session transitions, by event (restored, anonymous, login, login_failed, register, logout).",
		}, []string{"event"}),
	}

	reg.MustRegister(m.Transitions)
	return m
}

func (m *SessionMetrics) Transition(event string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event).Inc()
}
