package notify

import (
	"log/slog"

	"golang.org/x/time/rate"

	"agentdesk/internal/apperr"
)

// RateLimited wraps a listener with a token bucket so a flapping dependency
// cannot flood a downstream reporter (UI bridge, remote logger). Events that
// exceed the budget are dropped, not queued: the hub dispatches
// synchronously and must never block the failing call path.
//
// eventsPerSecond is the sustained rate; burst is the number of events that
// may be delivered back to back.
func RateLimited(l Listener, eventsPerSecond float64, burst int) Listener {
	limiter := rate.NewLimiter(rate.Limit(eventsPerSecond), burst)

	return func(err *apperr.Error, evtCtx *EventContext) {
		if !limiter.Allow() {
			slog.Debug("error notification dropped by rate limit",
				slog.String("kind", string(err.Kind())))
			return
		}
		l(err, evtCtx)
	}
}
