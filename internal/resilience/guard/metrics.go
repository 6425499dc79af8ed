package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// guardRequestsTotal counts guarded calls by dependency and outcome.
	guardRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_requests_total",
			Help: "Total number of guarded dependency calls",
		},
		[]string{"dependency", "status"},
	)

	// guardRequestDuration measures guarded call latency including retries.
	// Buckets span fast local tools through slow provider calls.
	guardRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guard_request_duration_seconds",
			Help:    "Guarded dependency call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"dependency"},
	)
)

func recordRequest(dependency string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	guardRequestsTotal.WithLabelValues(dependency, status).Inc()
	guardRequestDuration.WithLabelValues(dependency).Observe(duration.Seconds())
}
