// Package notify implements the process-wide failure notification hub.
// Every error handled by the resilience layer is broadcast to registered
// listeners (IPC bridges, loggers, UI adapters) without the layer knowing
// who is observing.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"agentdesk/internal/apperr"
)

// EventContext describes where a handled error came from.
type EventContext struct {
	Component string
	Operation string
	Metadata  map[string]any
}

// Listener receives every classified error passed through Handle.
// Listeners must not be assumed to be panic-safe; the hub isolates them.
type Listener func(err *apperr.Error, evtCtx *EventContext)

type subscription struct {
	id int
	fn Listener
}

// Hub is a registry of failure listeners. All methods are safe for
// concurrent use. The zero value is not usable; construct with NewHub.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	listeners []subscription
	logger    *slog.Logger
}

// NewHub creates an isolated hub with no listeners. Production code uses the
// Default hub; tests construct their own so they never share global state.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

var (
	defaultHub  *Hub
	defaultOnce sync.Once
)

// Default returns the process-wide hub, creating it on first use.
func Default() *Hub {
	defaultOnce.Do(func() {
		defaultHub = NewHub(slog.Default())
	})
	return defaultHub
}

// OnError registers a listener and returns an idempotent unsubscribe
// function. Listeners are notified in registration order.
func (h *Hub) OnError(l Listener) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, subscription{id: id, fn: l})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, sub := range h.listeners {
				if sub.id == id {
					h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// ClearListeners removes every registered listener. Primarily a teardown
// hook for tests.
func (h *Hub) ClearListeners() {
	h.mu.Lock()
	h.listeners = nil
	h.mu.Unlock()
}

// ListenerCount returns the number of registered listeners.
func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Handle normalizes input into a classified error, stamps an event id into
// the context metadata, notifies every listener in registration order, and
// returns the classified error. A panicking listener is logged and skipped;
// it never prevents the remaining listeners from running or Handle from
// returning.
//
// The context carries the logger and trace propagation only; Handle itself
// does not block and cannot be cancelled.
func (h *Hub) Handle(ctx context.Context, input any, evtCtx *EventContext) *apperr.Error {
	classified := apperr.Normalize(input)

	evtCtx = stampEventID(evtCtx)

	h.mu.RLock()
	snapshot := make([]subscription, len(h.listeners))
	copy(snapshot, h.listeners)
	h.mu.RUnlock()

	for _, sub := range snapshot {
		h.dispatch(sub, classified, evtCtx)
	}

	recordHandled(classified, evtCtx)
	return classified
}

func (h *Hub) dispatch(sub subscription, err *apperr.Error, evtCtx *EventContext) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("error listener panicked",
				slog.Int("listener_id", sub.id),
				slog.String("kind", string(err.Kind())),
				slog.Any("panic", r))
		}
	}()
	sub.fn(err, evtCtx)
}

// stampEventID copies the event context and tags it with a unique id so
// observers on both sides of the IPC boundary can correlate reports.
func stampEventID(evtCtx *EventContext) *EventContext {
	out := &EventContext{}
	if evtCtx != nil {
		out.Component = evtCtx.Component
		out.Operation = evtCtx.Operation
	}
	out.Metadata = make(map[string]any, 1)
	if evtCtx != nil {
		for k, v := range evtCtx.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Metadata["event_id"] = uuid.New().String()
	return out
}

// Handle reports an error through the Default hub.
func Handle(ctx context.Context, input any, evtCtx *EventContext) *apperr.Error {
	return Default().Handle(ctx, input, evtCtx)
}

// OnError registers a listener on the Default hub.
func OnError(l Listener) func() {
	return Default().OnError(l)
}

// ClearListeners removes all listeners from the Default hub.
func ClearListeners() {
	Default().ClearListeners()
}
