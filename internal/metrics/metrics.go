package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters exported on /metrics.
type Metrics struct {
	Registry    *prometheus.Registry
	Operations  *prometheus.CounterVec
	RateLimited prometheus.Counter
}

// New registers the service collectors on a fresh registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_operations_total",
			Help: "Customer account operations by outcome",
		}, []string{"operation", "outcome"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "customer_login_rate_limited_total",
			Help: "Login attempts rejected by the rate limiter",
		}),
	}
}

// ObserveOperation counts one call of operation with the given outcome.
// A nil receiver is a no-op.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// IncrementRateLimited counts a rejected login attempt.
func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
