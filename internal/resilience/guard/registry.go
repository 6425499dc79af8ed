package guard

import (
	"sync"

	"agentdesk/internal/resilience/circuitbreaker"
)

// Registry tracks named guards so monitoring and manual operations can reach
// every breaker in the process.
type Registry struct {
	mu     sync.RWMutex
	guards map[string]*Guard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{guards: make(map[string]*Guard)}
}

// Register adds a guard under its name, replacing any previous entry.
func (r *Registry) Register(g *Guard) {
	r.mu.Lock()
	r.guards[g.Name()] = g
	r.mu.Unlock()
}

// Get returns the guard registered under name, if any.
func (r *Registry) Get(name string) (*Guard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guards[name]
	return g, ok
}

// Names returns the registered guard names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.guards))
	for name := range r.guards {
		names = append(names, name)
	}
	return names
}

// States returns a snapshot of every registered breaker's statistics.
func (r *Registry) States() map[string]circuitbreaker.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]circuitbreaker.Stats, len(r.guards))
	for name, g := range r.guards {
		out[name] = g.Breaker().Stats()
	}
	return out
}

// ResetAll forces every registered breaker back to closed.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.guards {
		g.Breaker().Reset()
	}
}
