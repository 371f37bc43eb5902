package processor

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps operation names to processors. Registration normally happens
// once at startup; lookups are safe from any goroutine.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Processor
	byType map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Processor),
		byType: make(map[string][]string),
	}
}

// Register adds p under p.Name(). It panics if the name is empty or already
// taken.
func (r *Registry) Register(p Processor) {
	name := p.Name()
	if name == "" {
		panic("processor: Register with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		panic("processor: Register called twice for " + name)
	}
	r.byName[name] = p
	for _, ct := range p.SupportedTypes() {
		r.byType[ct] = append(r.byType[ct], name)
	}
}

func (r *Registry) Get(name string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	return p, ok
}

// Lookup is Get with ErrProcessorNotFound for unknown names.
func (r *Registry) Lookup(name string) (Processor, error) {
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, name)
	}
	return p, nil
}

// ForType returns the names of processors accepting contentType, in
// registration order.
func (r *Registry) ForType(contentType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.byType[contentType])
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
