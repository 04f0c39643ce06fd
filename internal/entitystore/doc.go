// Package entitystore provides a thread-safe, in-memory store of reactive
// entity instances that notifies a Lifecycle whenever an entity is created,
// reconfigured or deleted.
//
// # Concurrency Model
//
// The store guards its map with a sync.RWMutex. Lifecycle hooks are always
// invoked after the lock has been released, so behaviour factories may read the
// store and a slow factory never blocks unrelated lookups.
//
// Deletion removes the entity first and then calls DetachByID: by the time the
// hook runs only the identifier of the entity is left.
package entitystore
