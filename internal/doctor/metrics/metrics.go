package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for doctor directory operations.
type Metrics struct {
	// Backend operations by name and result
	Operations *prometheus.CounterVec

	// Directory snapshot cache lookups
	CacheLookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all doctor metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_doctor_operations_total",
			Help: "Doctor backend operations by operation and result",
		}, []string{"operation", "result"}), // result: "ok", "api_error", "transport_error"

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_doctor_cache_lookups_total",
			Help: "Directory snapshot cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss", "error"
	}
}

// IncrementOperation records a backend operation result.
func (m *Metrics) IncrementOperation(operation, result string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, result).Inc()
	}
}

// IncrementCacheLookup records a cache hit, miss or error.
func (m *Metrics) IncrementCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}
