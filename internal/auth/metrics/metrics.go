package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for admin sign-in.
type Metrics struct {
	LoginAttempts *prometheus.CounterVec
	Logouts       prometheus.Counter
}

// New creates a new Metrics instance with all auth metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_auth_login_attempts_total",
			Help: "Admin sign-in attempts by result",
		}, []string{"result"}), // result: "ok", "dev_bypass", "invalid", "unavailable"

		Logouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medix_auth_logouts_total",
			Help: "Admin sign-outs",
		}),
	}
}

// IncrementLogin records a sign-in attempt.
func (m *Metrics) IncrementLogin(result string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// IncrementLogout records a sign-out.
func (m *Metrics) IncrementLogout() {
	if m != nil {
		m.Logouts.Inc()
	}
}
