package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks gateway invocation counters and latencies.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers gateway metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "gateway",
			Name:      "invocations_total",
			Help:      "Tool invocation attempts by tool and outcome.",
		}, []string{"tool", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatehouse",
			Subsystem: "gateway",
			Name:      "invocation_duration_seconds",
			Help:      "Tool invocation duration from validation to executor return.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

func (m *Metrics) observe(toolName, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(toolName, outcome).Inc()
	m.duration.WithLabelValues(toolName).Observe(seconds)
}
