package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agentdesk/internal/observability/logging"
	"agentdesk/internal/pkg/config"
	"agentdesk/internal/resilience/guard"
)

// guardedDependencies lists the external dependencies the desktop agent
// protects. Each gets a breaker and retry policy from the policy file.
var guardedDependencies = []string{"anthropic", "openai", "sidecar", "git"}

func main() {
	logger := initLogger()

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	policies := loadPolicies(logger)
	registry := buildRegistry(logger, policies)

	startMetricsServer(ctx, logger, registry)

	monitor := guard.NewMonitor(registry, logging.WithComponent(logger, "monitor"))
	schedule := loadSweepSchedule(logger)
	if err := monitor.Start(schedule); err != nil {
		logger.Error("failed to start breaker monitor", slog.Any("error", err))
		os.Exit(1)
	}
	defer monitor.Stop()

	logger.Info("recovery daemon started",
		slog.Int("guards", len(registry.Names())),
		slog.String("sweep_schedule", schedule))

	<-ctx.Done()
	logger.Info("recovery daemon shutting down")
}

// initLogger initializes the process logger from environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// loadPolicies reads recovery policies from the file named by
// RECOVERY_POLICY_FILE. A missing variable means builtin defaults; a broken
// file is fatal since running with unknown policies helps nobody.
func loadPolicies(logger *slog.Logger) *config.Policies {
	path := os.Getenv("RECOVERY_POLICY_FILE")

	policies, warnings, err := config.LoadPolicies(path)
	if err != nil {
		logger.Error("failed to load recovery policies",
			slog.String("path", path),
			slog.Any("error", err))
		os.Exit(1)
	}
	for _, warning := range warnings {
		logger.Warn("recovery policy fallback", slog.String("detail", warning))
	}
	logger.Info("recovery policies loaded",
		slog.String("path", path),
		slog.Int("warnings", len(warnings)))

	return policies
}

// buildRegistry constructs one guard per protected dependency and registers it.
func buildRegistry(logger *slog.Logger, policies *config.Policies) *guard.Registry {
	registry := guard.NewRegistry()

	for _, name := range guardedDependencies {
		policy := policies.For(name)
		g := guard.New(guard.Config{
			Name:    name,
			Retry:   policy.RetryPolicy(),
			Breaker: policy.BreakerConfig(name),
		})
		registry.Register(g)

		logger.Info("guard registered",
			slog.String("dependency", name),
			slog.Int("retry_max_attempts", policy.Retry.MaxAttempts),
			slog.Int("breaker_failure_threshold", policy.Breaker.FailureThreshold),
			slog.Duration("breaker_reset_timeout", policy.Breaker.ResetTimeout.Std()))
	}

	return registry
}

// loadSweepSchedule reads the breaker sweep schedule with warn-and-fallback.
func loadSweepSchedule(logger *slog.Logger) string {
	result := config.LoadEnvWithFallback("BREAKER_SWEEP_SCHEDULE", "@every 30s", config.ValidateCronSchedule)
	for _, warning := range result.Warnings {
		logger.Warn("configuration fallback", slog.String("detail", warning))
	}
	return result.Value.(string)
}
