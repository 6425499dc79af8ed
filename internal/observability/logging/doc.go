// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Component tagging for subsystem logs
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "agentdesk/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runTask(ctx context.Context) {
//	    logger := logging.WithComponent(logging.FromContext(ctx), "recovery")
//	    logger.Info("retrying operation")
//	}
package logging
