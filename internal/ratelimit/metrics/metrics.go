package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rate limit decisions by endpoint class.
type Metrics struct {
	Checks *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint class and decision",
		}, []string{"class", "decision"}),
	}
}

func (m *Metrics) IncrementAllowed(class string) {
	if m != nil {
		m.Checks.WithLabelValues(class, "allowed").Inc()
	}
}

func (m *Metrics) IncrementRejected(class string) {
	if m != nil {
		m.Checks.WithLabelValues(class, "rejected").Inc()
	}
}
