// Package registry owns the set of known agents and answers routing
// candidate queries. It preserves registration order so routing
// strategies can use it as a stable tie-break.
package registry

import (
	"sync"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

// Registry is the in-memory agent registry. All operations are
// non-blocking; reads return snapshots in registration order.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]agentrunner.Runner
	ordered []string // registration order of IDs
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]agentrunner.Runner)}
}

// Register adds an agent. Registering a duplicate ID overwrites the
// prior entry but keeps its original registration slot.
func (r *Registry) Register(a agentrunner.Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; !exists {
		r.ordered = append(r.ordered, a.ID())
	}
	r.byID[a.ID()] = a
}

// Unregister removes an agent by ID. Unknown IDs are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return
	}
	delete(r.byID, id)
	for i, oid := range r.ordered {
		if oid == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
}

// Get returns the agent with the given ID, or nil if unknown.
func (r *Registry) Get(id string) agentrunner.Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// All returns every registered agent in registration order.
func (r *Registry) All() []agentrunner.Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(agentrunner.Runner) bool { return true })
}

// ByRole returns agents with the given role in registration order.
func (r *Registry) ByRole(role agent.Role) []agentrunner.Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a agentrunner.Runner) bool { return a.Role() == role })
}

// Available returns idle agents in registration order.
func (r *Registry) Available() []agentrunner.Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a agentrunner.Runner) bool { return a.Status() == agent.StatusIdle })
}

// AvailableByRole returns idle agents with the given role.
func (r *Registry) AvailableByRole(role agent.Role) []agentrunner.Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a agentrunner.Runner) bool {
		return a.Status() == agent.StatusIdle && a.Role() == role
	})
}

// Clear removes all agents.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]agentrunner.Runner)
	r.ordered = nil
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// snapshot must be called with r.mu held.
func (r *Registry) snapshot(keep func(agentrunner.Runner) bool) []agentrunner.Runner {
	out := make([]agentrunner.Runner, 0, len(r.ordered))
	for _, id := range r.ordered {
		if a := r.byID[id]; a != nil && keep(a) {
			out = append(out, a)
		}
	}
	return out
}
