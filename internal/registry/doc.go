// Package registry provides the per-kind behaviour registry: a concurrency-safe
// map from entity identifier to at most one behaviour instance.
//
// One Registry exists for every behaviour kind. Registries never share a lock,
// so contention on one kind never blocks another kind and no lock ordering
// between kinds exists.
//
// # Concurrency Model
//
// Each Registry is guarded by its own sync.RWMutex:
//   - Contains, Get, Len and IDs take the read lock and may run concurrently.
//   - Insert, Remove and Clear take the write lock for the duration of the map
//     mutation only.
//   - The release hook for a replaced or removed entry runs after the lock has
//     been dropped, so a slow Close on a behaviour never stalls other callers.
//
// Contains is advisory. A caller that checks and then removes must tolerate a
// concurrent Insert in between; Remove itself is always safe and idempotent.
package registry
