package providers

import (
	"sync"
)

// Registry maps provider tags to adapters. Dispatching through the table is
// how a new backend family gets added: register a variant, don't grow a
// conditional chain.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(tag string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[tag] = provider
}

// Get retrieves a provider by tag, nil when unregistered
func (r *Registry) Get(tag string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[tag]
}

// List returns all registered provider tags
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.providers))
	for tag := range r.providers {
		tags = append(tags, tag)
	}
	return tags
}

// Has checks if a provider is registered
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[tag]
	return exists
}
