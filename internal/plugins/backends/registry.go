package backends

import (
	"sort"
	"sync"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
)

// Registry is the name → backend mapping the analysis gateway resolves
// against. Registration is the loader's side of the boundary; the core
// never learns how a backend was obtained.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]contracts.AnalysisBackend
}

func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]contracts.AnalysisBackend),
	}
}

// Register adds or replaces a backend under the given name.
func (r *Registry) Register(name string, backend contracts.AnalysisBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = backend
}

func (r *Registry) Resolve(name string) (contracts.AnalysisBackend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[name]
	return backend, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
