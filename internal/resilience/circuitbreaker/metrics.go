package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records breaker observability events. Implementations can use
// Prometheus or custom systems; the breaker never depends on a concrete one.
type Metrics interface {
	// RecordState records a state transition of the named breaker.
	RecordState(circuit, state string)

	// RecordRejection records a call rejected while the circuit was open.
	RecordRejection(circuit string)
}

// NoOpMetrics is the default Metrics implementation; it records nothing.
type NoOpMetrics struct{}

// RecordState is a no-op.
func (m *NoOpMetrics) RecordState(circuit, state string) {}

// RecordRejection is a no-op.
func (m *NoOpMetrics) RecordRejection(circuit string) {}

// stateValue maps state names to stable gauge values
// (0=closed, 1=open, 2=half-open).
var stateValue = map[string]float64{
	StateClosed.String():   0,
	StateOpen.String():     1,
	StateHalfOpen.String(): 2,
}

// PrometheusMetrics implements Metrics on a caller-owned registry, so tests
// and multiple breaker groups stay isolated from the global registerer.
type PrometheusMetrics struct {
	state      *prometheus.GaugeVec
	rejections *prometheus.CounterVec
}

// NewPrometheusMetrics creates breaker metrics registered on the given
// registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"circuit"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_rejections_total",
				Help: "Total calls rejected while the circuit was open",
			},
			[]string{"circuit"},
		),
	}
	reg.MustRegister(m.state, m.rejections)
	return m
}

// RecordState sets the state gauge for the named breaker.
func (m *PrometheusMetrics) RecordState(circuit, state string) {
	m.state.WithLabelValues(circuit).Set(stateValue[state])
}

// RecordRejection increments the rejection counter for the named breaker.
func (m *PrometheusMetrics) RecordRejection(circuit string) {
	m.rejections.WithLabelValues(circuit).Inc()
}
