package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentdesk/internal/resilience/circuitbreaker"
	"agentdesk/internal/resilience/guard"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// GuardHealthResponse reports the state of every registered breaker.
type GuardHealthResponse struct {
	Healthy bool          `json:"healthy"`
	Guards  []GuardStatus `json:"guards"`
}

// GuardStatus is the state of a single guarded dependency.
type GuardStatus struct {
	Name            string     `json:"name"`
	State           string     `json:"state"`
	FailureCount    int        `json:"failure_count"`
	LastFailureTime *time.Time `json:"last_failure_time,omitempty"`
}

// startMetricsServer starts the Prometheus metrics HTTP server.
// It runs in a separate goroutine and supports graceful shutdown via context.
//
// Endpoints:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health - Simple liveness probe (always returns 200 OK)
//   - GET /health/guards - Breaker states; 503 while any circuit is open
//
// The port comes from METRICS_PORT (default 9090). When ctx is canceled the
// server shuts down within 5 seconds, letting in-flight requests complete.
func startMetricsServer(ctx context.Context, logger *slog.Logger, registry *guard.Registry) *http.Server {
	port := getMetricsPort()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/guards", guardHealthHandler(registry))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// getMetricsPort retrieves the metrics server port from environment variable.
// Defaults to 9090 if not set or invalid.
func getMetricsPort() int {
	portStr := os.Getenv("METRICS_PORT")
	if portStr == "" {
		return 9090
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}

	return port
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// guardHealthHandler creates a handler for GET /health/guards.
// Returns 200 OK while every breaker is closed or probing, 503 when any
// circuit is open.
func guardHealthHandler(registry *guard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := registry.States()

		guards := make([]GuardStatus, 0, len(states))
		healthy := true

		for name, stats := range states {
			status := GuardStatus{
				Name:         name,
				State:        stats.State.String(),
				FailureCount: stats.FailureCount,
			}
			if !stats.LastFailureTime.IsZero() {
				t := stats.LastFailureTime
				status.LastFailureTime = &t
			}
			guards = append(guards, status)

			if stats.State == circuitbreaker.StateOpen {
				healthy = false
			}
		}

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(GuardHealthResponse{
			Healthy: healthy,
			Guards:  guards,
		})
	}
}
