// Package retry executes operations with bounded exponential backoff.
// Failures are normalized into classified errors and reported through the
// notification hub before the retry decision is made.
package retry

import (
	"context"
	"log/slog"
	"time"

	"agentdesk/internal/apperr"
	"agentdesk/internal/notify"
)

// Policy holds the configuration for retry logic. Pure data, no identity.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first (>= 1).
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff factor (> 1).
	Multiplier float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// ProviderPolicy returns a policy tuned for AI provider calls.
// Moderate retry due to cost considerations.
func ProviderPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// GitPolicy returns a policy tuned for local git operations.
// Fast retry: failures are usually transient lock contention.
func GitPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// FilesystemPolicy returns a policy tuned for filesystem access.
func FilesystemPolicy() Policy {
	return Policy{
		MaxAttempts:  2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}
}

// withDefaults fills zero fields so a partially specified policy is usable.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// delayFor computes the backoff delay after attempt index a (0-based),
// clamped to MaxDelay.
func (p Policy) delayFor(a int) time.Duration {
	delay := p.InitialDelay
	for i := 0; i < a; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// ShouldRetry decides whether a classified failure is worth another attempt.
type ShouldRetry func(*apperr.Error) bool

// retryableKinds is the default set of kinds eligible for retry.
var retryableKinds = map[apperr.Kind]bool{
	apperr.NetworkError:          true,
	apperr.TimeoutError:          true,
	apperr.ProviderRateLimited:   true,
	apperr.ProviderUnavailable:   true,
	apperr.ProviderRequestFailed: true,
}

// DefaultShouldRetry retries only recoverable errors of a transient kind.
func DefaultShouldRetry(err *apperr.Error) bool {
	return err.Recoverable() && retryableKinds[err.Kind()]
}

// Option customizes a retry run.
type Option func(*options)

type options struct {
	hub         *notify.Hub
	shouldRetry ShouldRetry
}

// WithHub routes failure notifications to a specific hub instead of the
// process default. Used by tests to stay isolated.
func WithHub(h *notify.Hub) Option {
	return func(o *options) { o.hub = h }
}

// WithShouldRetry overrides the default retry predicate.
func WithShouldRetry(pred ShouldRetry) Option {
	return func(o *options) { o.shouldRetry = pred }
}

// Do invokes op up to policy.MaxAttempts times, suspending between attempts
// with exponential backoff. Each failure is normalized and reported through
// the hub before the predicate decides whether to continue. The classified
// error of the last attempt is propagated on exhaustion, annotated with the
// attempt counters. No delay occurs after the final attempt or after a
// non-retryable failure, and cancellation never causes an extra attempt.
func Do[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T

	o := options{hub: notify.Default(), shouldRetry: DefaultShouldRetry}
	for _, apply := range opts {
		apply(&o)
	}
	policy = policy.withDefaults()

	var classified *apperr.Error
	for a := 0; a < policy.MaxAttempts; a++ {
		result, err := op(ctx)
		if err == nil {
			if a > 0 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", a+1))
			}
			return result, nil
		}

		classified = o.hub.Handle(ctx, err, &notify.EventContext{
			Component: "recovery",
			Operation: "retry",
			Metadata: map[string]any{
				"attempt":      a + 1,
				"max_attempts": policy.MaxAttempts,
			},
		})

		if !o.shouldRetry(classified) {
			slog.Warn("non-retryable failure, aborting",
				slog.Int("attempt", a+1),
				slog.String("kind", string(classified.Kind())))
			return zero, classified
		}

		if a == policy.MaxAttempts-1 {
			break
		}

		delay := policy.delayFor(a)
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", a+1),
			slog.Int("max_attempts", policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("kind", string(classified.Kind())))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, o.hub.Handle(ctx, ctx.Err(), &notify.EventContext{
				Component: "recovery",
				Operation: "retry",
				Metadata:  map[string]any{"attempt": a + 1, "aborted": true},
			})
		}
	}

	return zero, classified.WithDetails(map[string]any{
		"attempts":     policy.MaxAttempts,
		"max_attempts": policy.MaxAttempts,
	})
}
