package toolcall

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the catalog of tools a process exposes to models. It is
// constructed explicitly and passed where needed so tests can rebuild it.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition)}
}

// Register adds a tool to the registry.
// Registering a name that already exists is an error; silent shadowing of a
// tool would change model behavior without anyone noticing.
func (r *Registry) Register(d *Definition) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("tool must have a non-empty name")
	}
	if d.Execute == nil {
		return fmt.Errorf("tool %s has no implementation", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool already registered: %s", d.Name)
	}
	r.tools[d.Name] = d
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static registration at startup.
func (r *Registry) MustRegister(d *Definition) {
	if err := r.Register(d); err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

// Get returns a tool by name. Absence is reported, not an error.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// All returns every registered tool ordered by name.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Definition, 0, len(r.tools))
	for _, d := range r.tools {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
