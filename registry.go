package talloc

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Registry is a concurrency-safe directory of named Pools, keyed by
// normalized label (see normalizeLabel). It is the one place in this
// package that takes a lock -- to protect its own label-to-Pool map, never
// a Pool's internal state, which stays single-threaded by contract.
//
// This mirrors the teacher package's own MultiMap: a sync.RWMutex-guarded
// directory in front of entries that are not themselves safe for
// unsynchronized concurrent access. Where the teacher scans a slice
// because its Key type is a byte slice (not a valid map key), Registry
// labels are plain strings, so a map is the natural and more direct
// substitute for the same directory shape.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*Pool)}
}

// Create builds a new Pool and registers it under label. It fails if a
// pool with the same normalized label already exists.
func (r *Registry) Create(label string, minBlocks uint64, hooks ...Hook) (*Pool, error) {
	key := normalizeLabel(label)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[key]; exists {
		return nil, errors.Errorf("talloc: registry: pool %q already exists", key)
	}

	p, err := NewPool(minBlocks, label, hooks...)
	if err != nil {
		return nil, err
	}
	r.pools[key] = p
	return p, nil
}

// Get looks up the Pool registered under label.
func (r *Registry) Get(label string) (*Pool, bool) {
	key := normalizeLabel(label)

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[key]
	return p, ok
}

// Remove unregisters the Pool under label, reporting whether one existed.
// It does not clear or otherwise touch the Pool's state.
func (r *Registry) Remove(label string) bool {
	key := normalizeLabel(label)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[key]; !ok {
		return false
	}
	delete(r.pools, key)
	return true
}

// Labels returns the normalized labels of every registered Pool, sorted.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.pools))
	for k := range r.pools {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
