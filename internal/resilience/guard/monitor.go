package guard

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"agentdesk/internal/resilience/circuitbreaker"
)

// Monitor periodically logs the state of every registered breaker so an
// operator can see stuck-open circuits without waiting for the next failing
// call to surface them.
type Monitor struct {
	registry *Registry
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewMonitor creates a monitor over the given registry.
func NewMonitor(registry *Registry, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		registry: registry,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start begins the periodic sweep. The schedule uses cron syntax, including
// the "@every 30s" form.
func (m *Monitor) Start(schedule string) error {
	if _, err := m.cron.AddFunc(schedule, m.sweep); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the sweep; a sweep already in flight finishes.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

func (m *Monitor) sweep() {
	for name, stats := range m.registry.States() {
		level := slog.LevelDebug
		if stats.State != circuitbreaker.StateClosed {
			level = slog.LevelWarn
		}
		m.logger.Log(context.Background(), level, "circuit breaker status",
			slog.String("circuit", name),
			slog.String("state", stats.State.String()),
			slog.Int("failure_count", stats.FailureCount),
			slog.Int("success_count", stats.SuccessCount))
	}
}
