// Package tracing provides the OpenTelemetry tracer used by the resilience
// layer. Exporter setup belongs to the embedding application; this package
// only names the instrumentation scope.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for agentdesk instrumentation.
var tracer = otel.Tracer("agentdesk")

// Tracer returns the tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.Tracer().Start(ctx, "guard.execute")
//	defer span.End()
func Tracer() trace.Tracer {
	return tracer
}
