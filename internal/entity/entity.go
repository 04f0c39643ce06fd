// Package entity implements the reactive entity instances behaviours attach to.
//
// An Instance is identified by a UUID that never changes, carries a type tag
// that decides which behaviour kinds apply to it, and stores its properties as
// cty values. Setting a property notifies the observers registered for that
// property name.
package entity

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// Observer is called after a property value has changed.
type Observer func(name string, value cty.Value)

// ObserverHandle identifies a registered observer so it can be removed again.
type ObserverHandle uint64

type observerEntry struct {
	handle ObserverHandle
	fn     Observer
}

// Instance is a reactive entity instance.
type Instance struct {
	ID       uuid.UUID
	TypeName string

	mu         sync.RWMutex
	properties map[string]cty.Value
	observers  map[string][]observerEntry
	nextHandle ObserverHandle
}

// New creates an instance with a fresh random identifier.
func New(typeName string, props map[string]cty.Value) *Instance {
	return NewWithID(uuid.New(), typeName, props)
}

// NewWithID creates an instance with the given identifier. The property map
// is copied.
func NewWithID(id uuid.UUID, typeName string, props map[string]cty.Value) *Instance {
	e := &Instance{
		ID:         id,
		TypeName:   typeName,
		properties: make(map[string]cty.Value, len(props)),
		observers:  make(map[string][]observerEntry),
	}
	for k, v := range props {
		e.properties[k] = v
	}
	return e
}

// Get returns the current value of a property.
func (e *Instance) Get(name string) (cty.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.properties[name]
	return v, ok
}

// Set stores a property value and then notifies that property's observers on
// the calling goroutine. Observers run without the instance lock held, so they
// may read or write other properties.
func (e *Instance) Set(name string, value cty.Value) {
	e.mu.Lock()
	e.properties[name] = value
	observers := make([]observerEntry, len(e.observers[name]))
	copy(observers, e.observers[name])
	e.mu.Unlock()

	for _, o := range observers {
		o.fn(name, value)
	}
}

// SetAll stores several properties, notifying observers in name order.
func (e *Instance) SetAll(props map[string]cty.Value) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.Set(name, props[name])
	}
}

// Properties returns a snapshot of all properties.
func (e *Instance) Properties() map[string]cty.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]cty.Value, len(e.properties))
	for k, v := range e.properties {
		out[k] = v
	}
	return out
}

// Observe registers fn for changes of the named property.
func (e *Instance) Observe(name string, fn Observer) ObserverHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextHandle++
	h := e.nextHandle
	e.observers[name] = append(e.observers[name], observerEntry{handle: h, fn: fn})
	return h
}

// Unobserve removes a previously registered observer. Unknown handles are ignored.
func (e *Instance) Unobserve(name string, h ObserverHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.observers[name]
	for i, o := range list {
		if o.handle == h {
			e.observers[name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(e.observers[name]) == 0 {
		delete(e.observers, name)
	}
}

// ObserverCount returns the number of observers registered for a property.
func (e *Instance) ObserverCount(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.observers[name])
}
