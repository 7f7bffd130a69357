package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registry lookups.
type Metrics struct {
	Lookups          *prometheus.CounterVec
	LookupDuration   prometheus.Histogram
	CategoryFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_registry_lookups_total",
			Help: "Registry lookups by outcome",
		}, []string{"outcome"}), // outcome: "valid", "not_found", "ambiguous", "error"

		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "medix_registry_lookup_duration_seconds",
			Help:    "Time to query all registry categories and reconcile",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		CategoryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medix_registry_category_failures_total",
			Help: "Registry category requests that contributed no results because they failed",
		}, []string{"category", "reason"}), // reason: "status", "decode", "transport"
	}
}

// ObserveLookup records the outcome and duration of one lookup.
func (m *Metrics) ObserveLookup(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(elapsed.Seconds())
}

// IncrementCategoryFailure records a failed category request.
func (m *Metrics) IncrementCategoryFailure(category, reason string) {
	if m != nil {
		m.CategoryFailures.WithLabelValues(category, reason).Inc()
	}
}
