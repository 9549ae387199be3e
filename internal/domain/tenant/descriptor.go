package tenant

import (
	"sort"
	"sync"
)

// Descriptor describes one store's database entry point. Many subdomains may
// alias the same ConnectionURI (one store reachable from several domains).
// Immutable after registration except the active flag.
type Descriptor struct {
	Subdomain     string
	ConnectionURI string
	StoreName     string
	IsActive      bool
}

// Registry is a pure lookup table of subdomain to Descriptor. It performs no
// I/O; descriptors are loaded from configuration at process start and may be
// added or deactivated at runtime by the pool manager.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry creates a registry from the given descriptors. Later entries
// with a duplicate subdomain overwrite earlier ones.
func NewRegistry(descriptors []Descriptor) *Registry {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Subdomain] = d
	}
	return &Registry{descriptors: m}
}

// Lookup returns the descriptor for a subdomain and whether it exists.
func (r *Registry) Lookup(subdomain string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[subdomain]
	return d, ok
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.Subdomain] = d
}

// Deregister removes a descriptor. Returns false if it was absent.
func (r *Registry) Deregister(subdomain string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.descriptors[subdomain]; !ok {
		return false
	}
	delete(r.descriptors, subdomain)
	return true
}

// SetActive toggles the active flag for a subdomain. Returns false if the
// subdomain is unknown.
func (r *Registry) SetActive(subdomain string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.descriptors[subdomain]
	if !ok {
		return false
	}
	d.IsActive = active
	r.descriptors[subdomain] = d
	return true
}

// Subdomains returns all registered subdomains in sorted order.
func (r *Registry) Subdomains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.descriptors))
	for s := range r.descriptors {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
