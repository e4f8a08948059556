// Package registry stores example metadata and the results cached for each
// example during a run.
//
// A Registry holds two independent mappings: name -> metadata, which is
// write-once per name, and name -> cached result, which is overwritable.
// It performs no locking; one Registry serves one suite execution at a time.
// Use Snapshot to obtain an isolated copy for a new run.
package registry

import (
	"errors"
	"fmt"

	"github.com/nomis52/goexample/example"
)

// ErrDuplicateName is returned when registering a name twice.
var ErrDuplicateName = errors.New("example already registered")

// Registry is an in-memory store of example metadata and cached results.
type Registry struct {
	order    []string
	metadata map[string]example.Metadata
	results  map[string]example.Result
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		metadata: make(map[string]example.Metadata),
		results:  make(map[string]example.Result),
	}
}

// Register stores the metadata for a new example.
// Returns an error wrapping ErrDuplicateName if the name is taken.
func (r *Registry) Register(meta example.Metadata) error {
	if _, exists := r.metadata[meta.Name]; exists {
		return fmt.Errorf("%w: example %q is already registered, names must be unique", ErrDuplicateName, meta.Name)
	}

	r.metadata[meta.Name] = meta.Copy()
	r.order = append(r.order, meta.Name)
	return nil
}

// Get returns the metadata registered under name.
func (r *Registry) Get(name string) (example.Metadata, bool) {
	meta, ok := r.metadata[name]
	if !ok {
		return example.Metadata{}, false
	}
	return meta.Copy(), true
}

// All returns every registered example in registration order.
func (r *Registry) All() []example.Metadata {
	all := make([]example.Metadata, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.metadata[name].Copy())
	}
	return all
}

// Names returns the registered example names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// SetCachedResult stores (or overwrites) the cached result for name.
// The name does not need to be registered.
func (r *Registry) SetCachedResult(name string, result example.Result) {
	r.results[name] = result
}

// CachedResult returns the cached result for name.
func (r *Registry) CachedResult(name string) (example.Result, bool) {
	result, ok := r.results[name]
	return result, ok
}

// ClearResults drops every cached result but keeps the metadata.
func (r *Registry) ClearResults() {
	r.results = make(map[string]example.Result)
}

// Clear resets both the metadata and the cached results.
func (r *Registry) Clear() {
	r.order = nil
	r.metadata = make(map[string]example.Metadata)
	r.results = make(map[string]example.Result)
}

// Size returns the number of registered examples.
// Cached results do not contribute to the count.
func (r *Registry) Size() int {
	return len(r.metadata)
}

// Snapshot returns a new Registry with the same metadata and no cached
// results. Later changes to either registry do not affect the other.
func (r *Registry) Snapshot() *Registry {
	snap := New()
	for _, name := range r.order {
		snap.metadata[name] = r.metadata[name].Copy()
		snap.order = append(snap.order, name)
	}
	return snap
}
