package automation

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the process-wide catalog of automations. It is constructed
// explicitly and passed to the components that need it, so tests can build
// a fresh one per case.
type Registry struct {
	mu          sync.RWMutex
	automations map[string]Automation
}

// NewRegistry creates a new empty automation registry.
func NewRegistry() *Registry {
	return &Registry{automations: make(map[string]Automation)}
}

// Register adds an automation to the registry.
// Returns an error for an empty ID or a duplicate ID; silent shadowing of an
// existing automation would be a deployment bug, not a feature.
func (r *Registry) Register(a Automation) error {
	if a == nil || a.ID() == "" {
		return fmt.Errorf("automation must have a non-empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.automations[a.ID()]; exists {
		return fmt.Errorf("automation already registered: %s", a.ID())
	}
	r.automations[a.ID()] = a
	return nil
}

// MustRegister registers an automation and panics on error.
// Use this for static registration at startup.
func (r *Registry) MustRegister(a Automation) {
	if err := r.Register(a); err != nil {
		panic(fmt.Sprintf("failed to register automation: %v", err))
	}
}

// Get returns an automation by ID.
func (r *Registry) Get(id string) (Automation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.automations[id]
	return a, ok
}

// All returns every registered automation, ordered by ID for determinism.
func (r *Registry) All() []Automation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Automation, 0, len(r.automations))
	for _, a := range r.automations {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Enabled returns every enabled automation with a usable ID, ordered by ID.
func (r *Registry) Enabled() []Automation {
	all := r.All()
	result := make([]Automation, 0, len(all))
	for _, a := range all {
		if a.Enabled() && a.ID() != "" {
			result = append(result, a)
		}
	}
	return result
}

// Threshold resolves an automation's configured trigger threshold.
// An unregistered automation has an undefined threshold: callers comparing
// pressure against it must fail closed (never-exceeding), not open.
func (r *Registry) Threshold(automationID string) (float64, bool) {
	a, ok := r.Get(automationID)
	if !ok {
		return 0, false
	}
	return a.PressureThreshold()
}
