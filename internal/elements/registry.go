package elements

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps element type tags to their implementations. Tags are
// matched exactly and case-sensitively. Kinds are registered at process
// start; lookups at render time are read-only.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry creates a registry with all built-in element kinds.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("text", func() Element { return &TextElement{} })
	r.MustRegister("image", func() Element { return &ImageElement{} })
	r.MustRegister("qrcode", func() Element { return &QRCodeElement{} })
	r.MustRegister("userfield", func() Element { return NewUserFieldElement() })
	r.MustRegister("coursefield", func() Element { return NewCourseFieldElement() })
	r.MustRegister("date", func() Element { return &DateElement{} })
	r.MustRegister("code", func() Element { return &CodeElement{} })
	r.MustRegister("border", func() Element { return &BorderElement{} })
	return r
}

// Register adds a factory for a type tag. Duplicate tags return an error.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return fmt.Errorf("elements: type tag is required")
	}
	if factory == nil {
		return fmt.Errorf("elements: factory is required for %q", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[tag]; exists {
		return fmt.Errorf("elements: type %q already registered", tag)
	}
	r.factories[tag] = factory
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(tag string, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// Create resolves the element for a type tag and checks that the stored
// config only carries keys the kind declares. An unregistered tag yields
// *UnknownTypeError.
func (r *Registry) Create(tag string, cfg Config) (Element, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Tag: tag}
	}

	el := factory()
	declared := make(map[string]struct{}, len(el.Keys()))
	for _, k := range el.Keys() {
		declared[k] = struct{}{}
	}
	for k := range cfg {
		if _, ok := declared[k]; !ok {
			return nil, fmt.Errorf("elements: stored config for %q carries undeclared key %q", tag, k)
		}
	}
	return el, nil
}

// Has reports whether a type tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// List returns the registered type tags, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
