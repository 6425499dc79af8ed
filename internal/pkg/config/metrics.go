package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics provides parameterized Prometheus metrics for configuration
// management. The factory creates a standard set of metrics for tracking
// configuration state, validation errors, and fallback behavior.
//
// Metrics generated (parameterized by component name):
//   - {component}_config_load_timestamp: Unix timestamp of last configuration load
//   - {component}_config_validation_errors_total: Total validation errors by field
//   - {component}_config_fallbacks_total: Total fallback operations by field
//   - {component}_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Example:
//
//	var recoveryMetrics = config.NewConfigMetrics("recovery")
//
//	recoveryMetrics.RecordLoadTimestamp()
//	recoveryMetrics.RecordFallback("retry.max_attempts")
type ConfigMetrics struct {
	// LoadTimestamp records the Unix timestamp of the last configuration load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts configuration validation errors by field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts fallback operations by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive indicates whether any fallback is currently active.
	// Values: 1 (fallback active), 0 (no fallback).
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics creates a new ConfigMetrics instance with component-specific
// metric names. The component name is used as a prefix for all metrics to avoid
// naming conflicts between components.
//
// Metrics register with the Prometheus default registry. Registering the same
// component name twice panics, so callers hold one instance per component.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),

		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),

		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),

		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),

		componentName: componentName,
	}
}

// RecordLoadTimestamp records the current time as the configuration load
// timestamp. Called whenever configuration is loaded or reloaded.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError increments the validation error counter for a field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback increments the fallback counter for a field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the fallback active status. Set to true if any
// configuration field is using a fallback value.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
