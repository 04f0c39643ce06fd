package entitystore

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex hands out one mutex per id. Entries are dropped once no caller
// holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*refMutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// holders reports how many callers hold or wait on id.
func (k *keyedMutex) holders(id uuid.UUID) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if m, ok := k.locks[id]; ok {
		return m.refs
	}
	return 0
}
