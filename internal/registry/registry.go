package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds at most one behaviour of type B per entity identifier.
// The zero value is not usable; construct with New.
type Registry[B comparable] struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]B
	name    string
	release func(id uuid.UUID, b B)
}

// Option configures a Registry.
type Option[B comparable] func(*Registry[B])

// WithName labels the registry, typically with the behaviour kind it stores.
func WithName[B comparable](name string) Option[B] {
	return func(r *Registry[B]) { r.name = name }
}

// WithRelease sets the hook invoked when an entry leaves the registry, either
// because it was removed or because a later Insert replaced it.
func WithRelease[B comparable](fn func(id uuid.UUID, b B)) Option[B] {
	return func(r *Registry[B]) { r.release = fn }
}

// New creates an empty registry.
func New[B comparable](opts ...Option[B]) *Registry[B] {
	r := &Registry[B]{entries: make(map[uuid.UUID]B)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the label given with WithName.
func (r *Registry[B]) Name() string {
	return r.name
}

// Insert stores b under id, replacing any previous entry. The replaced value,
// if any and if different from b, is handed to the release hook.
func (r *Registry[B]) Insert(id uuid.UUID, b B) {
	r.mu.Lock()
	prev, replaced := r.entries[id]
	r.entries[id] = b
	r.mu.Unlock()

	if replaced && prev != b {
		r.releaseEntry(id, prev)
	}
}

// Remove deletes the entry for id. It reports whether an entry was present;
// removing an absent id is a no-op.
func (r *Registry[B]) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	prev, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		r.releaseEntry(id, prev)
	}
	return ok
}

// Contains reports whether an entry for id exists at the time of the call.
func (r *Registry[B]) Contains(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[id]
	return ok
}

// Get returns the behaviour stored for id.
func (r *Registry[B]) Get(id uuid.UUID) (B, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.entries[id]
	return b, ok
}

// Len returns the number of entries.
func (r *Registry[B]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns a snapshot of the identifiers currently stored. Order is unspecified.
func (r *Registry[B]) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes every entry and returns how many were removed.
func (r *Registry[B]) Clear() int {
	r.mu.Lock()
	old := r.entries
	r.entries = make(map[uuid.UUID]B)
	r.mu.Unlock()

	for id, b := range old {
		r.releaseEntry(id, b)
	}
	return len(old)
}

func (r *Registry[B]) releaseEntry(id uuid.UUID, b B) {
	if r.release != nil {
		r.release(id, b)
	}
}
