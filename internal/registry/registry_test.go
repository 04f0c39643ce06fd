package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBehaviour struct {
	name string
}

func TestRegistry_AbsentID(t *testing.T) {
	r := New[*fakeBehaviour]()
	id := uuid.New()

	assert.False(t, r.Contains(id))
	assert.False(t, r.Remove(id), "removing a never inserted id must be a no-op")
	assert.Equal(t, 0, r.Len())

	b, ok := r.Get(id)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestRegistry_InsertReplacesAndReleases(t *testing.T) {
	var released []*fakeBehaviour
	r := New(WithRelease(func(_ uuid.UUID, b *fakeBehaviour) {
		released = append(released, b)
	}))
	id := uuid.New()
	x := &fakeBehaviour{name: "x"}
	y := &fakeBehaviour{name: "y"}

	r.Insert(id, x)
	r.Insert(id, y)

	assert.Equal(t, 1, r.Len(), "last write wins, never two entries")
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, y, got)
	require.Len(t, released, 1)
	assert.Same(t, x, released[0])
}

func TestRegistry_InsertSameValueDoesNotRelease(t *testing.T) {
	calls := 0
	r := New(WithRelease(func(uuid.UUID, *fakeBehaviour) { calls++ }))
	id := uuid.New()
	x := &fakeBehaviour{name: "x"}

	r.Insert(id, x)
	r.Insert(id, x)

	assert.Equal(t, 0, calls)
	assert.True(t, r.Contains(id))
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	calls := 0
	r := New(WithName[*fakeBehaviour]("http"), WithRelease(func(uuid.UUID, *fakeBehaviour) { calls++ }))
	id := uuid.New()
	r.Insert(id, &fakeBehaviour{})

	assert.True(t, r.Remove(id))
	assert.False(t, r.Remove(id))
	assert.False(t, r.Contains(id))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "http", r.Name())
}

func TestRegistry_IDsAndClear(t *testing.T) {
	calls := 0
	r := New(WithRelease(func(uuid.UUID, *fakeBehaviour) { calls++ }))
	a, b := uuid.New(), uuid.New()
	r.Insert(a, &fakeBehaviour{})
	r.Insert(b, &fakeBehaviour{})

	assert.ElementsMatch(t, []uuid.UUID{a, b}, r.IDs())
	assert.Equal(t, 2, r.Clear())
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.IDs())
}

// TestRegistry_ConcurrentInsertRemove hammers a single identifier from many
// goroutines. Every inserted value must end up either released exactly once or
// still stored, and the map never holds more than one entry for the id.
func TestRegistry_ConcurrentInsertRemove(t *testing.T) {
	const (
		numGoroutines = 32
		numOps        = 500
	)

	var released atomic.Int64
	var inserted atomic.Int64
	r := New(WithRelease(func(uuid.UUID, *fakeBehaviour) { released.Add(1) }))
	id := uuid.New()

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < numOps; i++ {
				switch i % 3 {
				case 0:
					r.Insert(id, &fakeBehaviour{})
					inserted.Add(1)
				case 1:
					r.Remove(id)
				default:
					_ = r.Contains(id)
				}
				if n := r.Len(); n > 1 {
					t.Errorf("goroutine %d: registry holds %d entries for a single id", g, n)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 1)
	assert.Equal(t, inserted.Load(), released.Load()+int64(r.Len()))
}

// TestRegistry_ConcurrentDistinctIDs verifies that writers on different ids do
// not lose each other's entries.
func TestRegistry_ConcurrentDistinctIDs(t *testing.T) {
	const numGoroutines = 100
	r := New[*fakeBehaviour]()
	ids := make([]uuid.UUID, numGoroutines)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			r.Insert(ids[i], &fakeBehaviour{})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, numGoroutines, r.Len())
	for _, id := range ids {
		assert.True(t, r.Contains(id))
	}
}
