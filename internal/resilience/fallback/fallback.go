// Package fallback runs an ordered chain of alternative operations,
// stopping at the first success. It is the recovery path for failures that
// retrying the same dependency cannot fix, such as a misconfigured or
// permanently rejecting provider.
package fallback

import (
	"context"
	"log/slog"

	"agentdesk/internal/apperr"
	"agentdesk/internal/notify"
)

// ShouldFallback decides whether the next candidate should be tried after a
// classified failure.
type ShouldFallback func(*apperr.Error) bool

// fallbackKinds is the default set of kinds that justify moving on to the
// next candidate. Transient kinds are deliberately absent: those are the
// retry layer's job.
var fallbackKinds = map[apperr.Kind]bool{
	apperr.ProviderNotFound:      true,
	apperr.ProviderAuthFailed:    true,
	apperr.ProviderUnavailable:   true,
	apperr.ProviderRequestFailed: true,
}

// DefaultShouldFallback falls back on provider-level failures.
func DefaultShouldFallback(err *apperr.Error) bool {
	return fallbackKinds[err.Kind()]
}

// Option customizes a fallback run.
type Option func(*options)

type options struct {
	hub            *notify.Hub
	shouldFallback ShouldFallback
}

// WithHub routes failure notifications to a specific hub instead of the
// process default.
func WithHub(h *notify.Hub) Option {
	return func(o *options) { o.hub = h }
}

// WithShouldFallback overrides the default fallback predicate.
func WithShouldFallback(pred ShouldFallback) Option {
	return func(o *options) { o.shouldFallback = pred }
}

// Do invokes primary, then each fallback in order, returning the first
// success. Candidates run strictly sequentially and at most once each. Every
// failure is normalized and reported through the hub; if the predicate
// rejects a failure, it propagates immediately without trying the remaining
// candidates. When the chain is exhausted, the last classified failure is
// propagated.
func Do[T any](ctx context.Context, primary func(context.Context) (T, error), fallbacks []func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T

	o := options{hub: notify.Default(), shouldFallback: DefaultShouldFallback}
	for _, apply := range opts {
		apply(&o)
	}

	candidates := append([]func(context.Context) (T, error){primary}, fallbacks...)

	var classified *apperr.Error
	for i, candidate := range candidates {
		result, err := candidate(ctx)
		if err == nil {
			if i > 0 {
				slog.Info("fallback candidate succeeded",
					slog.Int("candidate", i),
					slog.Int("chain_length", len(candidates)))
			}
			return result, nil
		}

		classified = o.hub.Handle(ctx, err, &notify.EventContext{
			Component: "recovery",
			Operation: "fallback",
			Metadata: map[string]any{
				"candidate":    i,
				"primary":      i == 0,
				"chain_length": len(candidates),
			},
		})

		if !o.shouldFallback(classified) {
			slog.Warn("failure not eligible for fallback, aborting chain",
				slog.Int("candidate", i),
				slog.String("kind", string(classified.Kind())))
			return zero, classified
		}

		if i < len(candidates)-1 {
			slog.Warn("candidate failed, trying next",
				slog.Int("candidate", i),
				slog.String("kind", string(classified.Kind())))
		}
	}

	return zero, classified
}
