// Package guard composes the recovery strategies into a single entry point
// per protected dependency: a circuit breaker innermost, retry with backoff
// around it, and an optional fallback chain on the outside.
//
// A breaker rejection surfaces as a recoverable provider-unavailable error,
// so the retry loop's backoff naturally waits out part of the reset timeout,
// and an exhausted retry hands a fallback-eligible error to the chain.
package guard

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"agentdesk/internal/notify"
	"agentdesk/internal/observability/tracing"
	"agentdesk/internal/resilience/circuitbreaker"
	"agentdesk/internal/resilience/fallback"
	"agentdesk/internal/resilience/retry"
)

// Config assembles a guard for one dependency.
type Config struct {
	// Name identifies the dependency in spans, metrics, and breaker state.
	Name string

	// Retry is the backoff policy; zero value means retry.DefaultPolicy.
	Retry retry.Policy

	// Breaker configures the circuit breaker; Name is filled in from the
	// guard if empty.
	Breaker circuitbreaker.Config

	// ShouldRetry overrides the retry predicate; nil means the default.
	ShouldRetry retry.ShouldRetry

	// Hub receives failure notifications; nil means the process default.
	Hub *notify.Hub
}

// ProviderConfig returns a guard configuration tuned for an AI provider.
func ProviderConfig(name string) Config {
	return Config{
		Name:    name,
		Retry:   retry.ProviderPolicy(),
		Breaker: circuitbreaker.ProviderConfig(name),
	}
}

// GitConfig returns a guard configuration tuned for local git operations.
func GitConfig() Config {
	return Config{
		Name:    "git",
		Retry:   retry.GitPolicy(),
		Breaker: circuitbreaker.GitConfig(),
	}
}

// Guard protects all calls to one dependency. Safe for concurrent use.
type Guard struct {
	name        string
	policy      retry.Policy
	breaker     *circuitbreaker.CircuitBreaker
	shouldRetry retry.ShouldRetry
	hub         *notify.Hub
}

// New creates a guard from the given configuration.
func New(cfg Config) *Guard {
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = cfg.Name
	}
	if cfg.Hub == nil {
		cfg.Hub = notify.Default()
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = retry.DefaultShouldRetry
	}
	return &Guard{
		name:        cfg.Name,
		policy:      cfg.Retry,
		breaker:     circuitbreaker.New(cfg.Breaker),
		shouldRetry: cfg.ShouldRetry,
		hub:         cfg.Hub,
	}
}

// Name returns the guarded dependency's name.
func (g *Guard) Name() string { return g.name }

// Breaker exposes the underlying circuit breaker for state inspection and
// manual reset.
func (g *Guard) Breaker() *circuitbreaker.CircuitBreaker { return g.breaker }

// Do runs op through retry-around-breaker with a span and request metrics.
func Do[T any](ctx context.Context, g *Guard, op func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Tracer().Start(ctx, "guard.execute")
	span.SetAttributes(attribute.String("dependency", g.name))
	defer span.End()

	start := time.Now()
	result, err := retry.Do(ctx, g.policy, func(ctx context.Context) (T, error) {
		return circuitbreaker.Do(ctx, g.breaker, op)
	}, retry.WithHub(g.hub), retry.WithShouldRetry(g.shouldRetry))

	recordRequest(g.name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// DoWithFallback runs op through the guard, then walks the given fallback
// candidates when the guarded call ultimately fails with a
// fallback-eligible error.
func DoWithFallback[T any](ctx context.Context, g *Guard, op func(context.Context) (T, error), fallbacks []func(context.Context) (T, error)) (T, error) {
	primary := func(ctx context.Context) (T, error) {
		return Do(ctx, g, op)
	}
	return fallback.Do(ctx, primary, fallbacks, fallback.WithHub(g.hub))
}
