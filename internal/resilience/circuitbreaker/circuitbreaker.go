// Package circuitbreaker guards a failing dependency: after enough
// consecutive failures it rejects calls outright for a cooldown period, then
// probes cautiously before fully re-enabling traffic.
package circuitbreaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"agentdesk/internal/apperr"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal operating state: calls pass through.
	StateClosed State = iota

	// StateOpen rejects calls immediately without invoking the protected
	// operation, until the reset timeout elapses.
	StateOpen

	// StateHalfOpen lets trial probes through to test recovery.
	StateHalfOpen
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock abstracts time so tests can drive the reset timeout deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time { return time.Now() }

// Config holds the fixed configuration of a breaker instance.
type Config struct {
	// Name identifies the breaker in logs, metrics, and rejection details.
	Name string

	// FailureThreshold is the number of consecutive failures in the closed
	// state that trips the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a probe is
	// allowed. Default: 30 seconds.
	ResetTimeout time.Duration

	// HalfOpenSuccessThreshold is the number of consecutive successful
	// probes required to close the circuit again. Default: 2.
	HalfOpenSuccessThreshold int

	// Clock provides time; defaults to SystemClock.
	Clock Clock

	// Metrics records state changes and rejections; defaults to NoOpMetrics.
	Metrics Metrics
}

// DefaultConfig returns the default breaker configuration for a dependency.
func DefaultConfig(name string) Config {
	return Config{
		Name:                     name,
		FailureThreshold:         5,
		ResetTimeout:             30 * time.Second,
		HalfOpenSuccessThreshold: 2,
	}
}

// ProviderConfig returns a configuration tuned for AI provider calls.
func ProviderConfig(name string) Config {
	return Config{
		Name:                     name,
		FailureThreshold:         5,
		ResetTimeout:             60 * time.Second,
		HalfOpenSuccessThreshold: 2,
	}
}

// GitConfig returns a configuration tuned for local git operations.
// Local tools fail fast, so recovery is probed sooner.
func GitConfig() Config {
	return Config{
		Name:                     "git",
		FailureThreshold:         3,
		ResetTimeout:             10 * time.Second,
		HalfOpenSuccessThreshold: 1,
	}
}

// CircuitBreaker is a per-dependency three-state failure guard. A single
// instance may be shared by concurrent callers; all state transitions happen
// under one mutex.
type CircuitBreaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// New creates a circuit breaker in the closed state.
func New(cfg Config) *CircuitBreaker {
	def := DefaultConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenSuccessThreshold <= 0 {
		cfg.HalfOpenSuccessThreshold = def.HalfOpenSuccessThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = &SystemClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoOpMetrics{}
	}

	cb := &CircuitBreaker{cfg: cfg, state: StateClosed}
	cfg.Metrics.RecordState(cfg.Name, StateClosed.String())
	return cb
}

// Execute runs op through the breaker. In the open state, before the reset
// timeout has elapsed, the operation is not invoked and a classified
// provider-unavailable rejection is returned. In every other case the
// operation's own result and error pass through untouched.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	if rejection := cb.admit(); rejection != nil {
		return nil, rejection
	}

	result, err := op(ctx)
	if err != nil {
		cb.onFailure()
		return nil, err
	}

	cb.onSuccess()
	return result, nil
}

// Do is a typed wrapper around Execute.
func Do[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error)) (T, error) {
	var zero T
	result, err := cb.Execute(ctx, func(ctx context.Context) (any, error) {
		return op(ctx)
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// admit decides whether a call may proceed. It returns the classified
// rejection when the circuit is open and the reset timeout has not elapsed;
// otherwise it performs the open -> half-open transition as needed and
// returns nil.
func (cb *CircuitBreaker) admit() *apperr.Error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}

	now := cb.cfg.Clock.Now()
	if now.Sub(cb.lastFailureTime) >= cb.cfg.ResetTimeout {
		cb.transition(StateHalfOpen)
		cb.successCount = 0
		return nil
	}

	cb.cfg.Metrics.RecordRejection(cb.cfg.Name)
	return apperr.New(apperr.ProviderUnavailable, "service temporarily unavailable").
		WithDetails(map[string]any{
			"circuit":           cb.cfg.Name,
			"failure_count":     cb.failureCount,
			"last_failure_time": cb.lastFailureTime,
		})
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.HalfOpenSuccessThreshold {
			cb.transition(StateClosed)
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.lastFailureTime = cb.cfg.Clock.Now()
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.lastFailureTime = cb.cfg.Clock.Now()
		cb.transition(StateOpen)
	}
}

// transition changes state and records it. Callers hold the mutex.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.cfg.Metrics.RecordState(cb.cfg.Name, to.String())

	slog.Warn("circuit breaker state changed",
		slog.String("circuit", cb.cfg.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("failure_count", cb.failureCount))
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsOpen reports whether the circuit is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Reset forces the breaker back to closed with zeroed counters, bypassing
// the state machine. Manual override for operators and tests.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transition(StateClosed)
	cb.failureCount = 0
	cb.successCount = 0
	cb.lastFailureTime = time.Time{}
}

// Stats is a snapshot of the breaker's counters, for monitoring.
type Stats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	LastFailureTime time.Time
}

// Stats returns a consistent snapshot of the breaker state.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		SuccessCount:    cb.successCount,
		LastFailureTime: cb.lastFailureTime,
	}
}

// IsRejection reports whether err is a rejection synthesized by an open
// breaker, as opposed to a failure of the protected operation itself.
func IsRejection(err error) bool {
	ce := apperr.Normalize(err)
	if ce.Kind() != apperr.ProviderUnavailable {
		return false
	}
	_, ok := ce.Detail("circuit")
	return ok
}
