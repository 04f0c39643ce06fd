package entitystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrNotFound is returned when no entity exists for an identifier.
	ErrNotFound = errors.New("entitystore: entity not found")
	// ErrExists is returned when creating an entity with an identifier already in use.
	ErrExists = errors.New("entitystore: entity already exists")
	// ErrInvalidType is returned when an entity is created without a type tag.
	ErrInvalidType = errors.New("entitystore: entity type must not be empty")
)

// Lifecycle receives entity lifecycle events. *provider.Provider implements it.
type Lifecycle interface {
	Attach(ctx context.Context, e *entity.Instance)
	Detach(ctx context.Context, e *entity.Instance)
	DetachByID(ctx context.Context, id uuid.UUID)
}

// Listener is told about completed store changes, after behaviours have been
// attached or detached.
type Listener interface {
	EntityCreated(e *entity.Instance)
	EntityReconfigured(e *entity.Instance)
	EntityDeleted(id uuid.UUID)
}

// Store holds entity instances keyed by identifier.
//
// Create, Reconfigure and Delete of the same id are serialized, so hooks for
// one entity never interleave and no behaviour is attached after the entity
// was deleted. Operations on different ids run concurrently.
type Store struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]*entity.Instance
	hooks    Lifecycle
	listener Listener
	locks    keyedMutex
}

// Option configures a Store.
type Option func(*Store)

// WithListener installs a listener for completed changes.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listener = l }
}

// New creates an empty store. hooks may be nil.
func New(hooks Lifecycle, opts ...Option) *Store {
	s := &Store{
		entities: make(map[uuid.UUID]*entity.Instance),
		hooks:    hooks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new entity and attaches its behaviours. A nil id is replaced
// by a random one.
func (s *Store) Create(ctx context.Context, typeName string, id uuid.UUID, props map[string]cty.Value) (*entity.Instance, error) {
	if typeName == "" {
		return nil, ErrInvalidType
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	e := entity.NewWithID(id, typeName, props)

	unlock := s.locks.lock(id)
	defer unlock()

	s.mu.Lock()
	if _, exists := s.entities[id]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}
	s.entities[id] = e
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Entity created.", "entity_id", id, "type", typeName)
	if s.hooks != nil {
		s.hooks.Attach(ctx, e)
	}
	if s.listener != nil {
		s.listener.EntityCreated(e)
	}
	return e, nil
}

// Delete removes an entity and then detaches every behaviour bound to its id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	s.mu.Lock()
	_, exists := s.entities[id]
	delete(s.entities, id)
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ctxlog.FromContext(ctx).Debug("Entity deleted.", "entity_id", id)
	if s.hooks != nil {
		s.hooks.DetachByID(ctx, id)
	}
	if s.listener != nil {
		s.listener.EntityDeleted(id)
	}
	return nil
}

// Reconfigure detaches the entity's behaviours, applies props and attaches
// behaviours again so factories see the new configuration.
func (s *Store) Reconfigure(ctx context.Context, id uuid.UUID, props map[string]cty.Value) (*entity.Instance, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	e, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if s.hooks != nil {
		s.hooks.Detach(ctx, e)
	}
	e.SetAll(props)
	if s.hooks != nil {
		s.hooks.Attach(ctx, e)
	}
	ctxlog.FromContext(ctx).Debug("Entity reconfigured.", "entity_id", id, "properties", len(props))
	if s.listener != nil {
		s.listener.EntityReconfigured(e)
	}
	return e, nil
}

// SetProperty sets a single property, firing the entity's observers.
func (s *Store) SetProperty(ctx context.Context, id uuid.UUID, name string, value cty.Value) error {
	e, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Set(name, value)
	return nil
}

// Get retrieves a single entity.
func (s *Store) Get(id uuid.UUID) (*entity.Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	return e, ok
}

// All returns every stored entity. Order is unspecified.
func (s *Store) All() []*entity.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Instance, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	return out
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}
