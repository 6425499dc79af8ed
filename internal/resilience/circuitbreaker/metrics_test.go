package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPrometheusMetrics_StateGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	cb := New(Config{
		Name:                     "claude",
		FailureThreshold:         2,
		ResetTimeout:             time.Hour,
		HalfOpenSuccessThreshold: 2,
		Clock:                    newFakeClock(),
		Metrics:                  NewPrometheusMetrics(reg),
	})

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), fail)

	mf := gatherMetric(t, reg, "circuit_breaker_state")
	if mf == nil {
		t.Fatal("circuit_breaker_state not registered")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Errorf("state gauge = %v, want 1 (open)", got)
	}
}

func TestPrometheusMetrics_RejectionCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	cb := New(Config{
		Name:                     "claude",
		FailureThreshold:         1,
		ResetTimeout:             time.Hour,
		HalfOpenSuccessThreshold: 1,
		Clock:                    newFakeClock(),
		Metrics:                  NewPrometheusMetrics(reg),
	})

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), succeed) // rejected
	_, _ = cb.Execute(context.Background(), succeed) // rejected

	mf := gatherMetric(t, reg, "circuit_breaker_rejections_total")
	if mf == nil {
		t.Fatal("circuit_breaker_rejections_total not registered")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("rejections = %v, want 2", got)
	}
}
