package carrier

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Registry manages registered carrier adapters. It preserves registration
// order: "first registered" is an observable routing policy (service-code
// fallback, tracking probe order), so iteration must be deterministic.
type Registry struct {
	adapters []Adapter
	byName   map[string]int
	mu       sync.RWMutex
}

// NewRegistry creates a new carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
	}
}

// Register adds an adapter to the registry. Re-registering a name replaces
// the adapter in place, keeping its position.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byName[a.Name()]; ok {
		r.adapters[i] = a
		return
	}
	r.byName[a.Name()] = len(r.adapters)
	r.adapters = append(r.adapters, a)
}

// Get returns an adapter by exact name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byName[name]; ok {
		return r.adapters[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// All returns all registered adapters in registration order.
func (r *Registry) All() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Adapter, len(r.adapters))
	copy(result, r.adapters)
	return result
}

// First returns the first registered adapter, if any.
func (r *Registry) First() (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.adapters) == 0 {
		return nil, false
	}
	return r.adapters[0], true
}

// Names returns the names of all registered adapters in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// ResolveServiceCode selects the adapter responsible for a service code.
// The code's prefix up to the first delimiter (any non-alphanumeric rune)
// is matched case-insensitively as a substring of each carrier name, in
// registration order. When nothing matches, the first registered adapter
// is the documented fallback. An empty registry yields ErrCarrierNotFound.
func (r *Registry) ResolveServiceCode(serviceCode string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.adapters) == 0 {
		return nil, fmt.Errorf("%w: no carriers registered for service %q", ErrCarrierNotFound, serviceCode)
	}

	prefix := strings.ToUpper(servicePrefix(serviceCode))
	if prefix != "" {
		for _, a := range r.adapters {
			if strings.Contains(strings.ToUpper(a.Name()), prefix) {
				return a, nil
			}
		}
	}
	return r.adapters[0], nil
}

// servicePrefix returns the leading run of letters and digits of a
// service code, e.g. "ups" for "ups_ground" or "FEDEX" for "FEDEX-2DAY".
func servicePrefix(code string) string {
	for i, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return code[:i]
		}
	}
	return code
}
