package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Registry resolves store names to constructed stores. It is built
// explicitly at startup and injected where needed; there is no package-level
// instance.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Add registers a store under name. Names are unique.
func (r *Registry) Add(name string, s *Store) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrDuplicateStore)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStore, name)
	}
	r.stores[name] = s
	return nil
}

// Get looks a store up by name. An unknown name reports the closest
// registered name, when one is plausible, to catch typos in configs and CLI
// arguments.
func (r *Registry) Get(name string) (*Store, error) {
	r.mu.RLock()
	s, ok := r.stores[name]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if suggestion := r.closest(name); suggestion != "" {
		return nil, fmt.Errorf("%w: %s (did you mean %q?)", ErrUnknownStore, name, suggestion)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
}

// Names returns the registered store names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// closest picks the registered name with the smallest edit distance, capped
// so wildly different names produce no suggestion.
func (r *Registry) closest(name string) string {
	best := ""
	bestDist := len(name)/2 + 2
	for _, candidate := range r.Names() {
		if d := fuzzy.LevenshteinDistance(name, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}
