package templates

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages available project templates.
type Registry struct {
	templates map[string]*Template
	mutex     sync.RWMutex
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
	}
}

// Register validates and adds a template to the registry.
func (r *Registry) Register(tmpl *Template) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[tmpl.ID]; exists {
		return fmt.Errorf("template %s already registered", tmpl.ID)
	}

	r.templates[tmpl.ID] = tmpl
	return nil
}

// Get retrieves a template by id.
func (r *Registry) Get(id string) (*Template, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tmpl, exists := r.templates[id]
	if !exists {
		return nil, fmt.Errorf("template %s not found", id)
	}

	return tmpl, nil
}

// List returns all registered templates ordered by id.
func (r *Registry) List() []*Template {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	templates := make([]*Template, 0, len(r.templates))
	for _, tmpl := range r.templates {
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	return templates
}

// Exists reports whether a template id is registered.
func (r *Registry) Exists(id string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.templates[id]
	return exists
}

// Unregister removes a template from the registry.
func (r *Registry) Unregister(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[id]; !exists {
		return fmt.Errorf("template %s not found", id)
	}

	delete(r.templates, id)
	return nil
}

// Default registry instance
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the default template registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetDefaultRegistry sets the default template registry (useful for testing).
func SetDefaultRegistry(r *Registry) {
	defaultRegistry = r
}

// RegisterBuiltinTemplates registers all built-in templates.
func RegisterBuiltinTemplates() error {
	templates := []*Template{
		NewDefaultTemplate(),
		NewMinimalTemplate(),
	}

	for _, tmpl := range templates {
		if err := defaultRegistry.Register(tmpl); err != nil {
			return fmt.Errorf("failed to register template %s: %w", tmpl.ID, err)
		}
	}

	return nil
}
