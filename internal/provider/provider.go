package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/registry"
)

var errNilBehaviour = errors.New("factory returned a nil behaviour")

// kindHandler binds a kind to its factory and its own registry.
type kindHandler struct {
	kind      Kind
	factory   Factory
	typeNames []string
	registry  *registry.Registry[Behaviour]
}

// Provider dispatches attach and detach requests to per-kind registries.
type Provider struct {
	// mu guards the dispatch tables only; behaviour entries live in the
	// per-kind registries and are never touched while mu is held.
	mu     sync.RWMutex
	kinds  []*kindHandler
	byKind map[Kind]*kindHandler
	byType map[string][]*kindHandler

	observer Observer
	logger   *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithObserver installs an observer for attach, detach and failure events.
func WithObserver(o Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// WithLogger sets the logger used when released behaviours fail to close.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// KindOption configures a kind at registration.
type KindOption func(*kindHandler)

// WithTypeNames makes the kind apply to entities carrying any of the given type
// tags instead of only the tag equal to the kind identifier.
func WithTypeNames(names ...string) KindOption {
	return func(h *kindHandler) { h.typeNames = names }
}

// New creates a Provider with no kinds registered.
func New(opts ...Option) *Provider {
	p := &Provider{
		byKind: make(map[Kind]*kindHandler),
		byType: make(map[string][]*kindHandler),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds a behaviour kind. Registering the same kind twice is a
// programmer error and panics.
func (p *Provider) Register(kind Kind, factory Factory, opts ...KindOption) {
	if kind == "" {
		panic("provider: behaviour kind must not be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("provider: nil factory for behaviour kind '%s'", kind))
	}

	h := &kindHandler{
		kind:      kind,
		factory:   factory,
		typeNames: []string{string(kind)},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = registry.New(
		registry.WithName[Behaviour](string(kind)),
		registry.WithRelease(func(id uuid.UUID, b Behaviour) { p.release(kind, id, b) }),
	)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byKind[kind]; exists {
		panic(fmt.Sprintf("provider: behaviour kind '%s' already registered", kind))
	}
	p.kinds = append(p.kinds, h)
	p.byKind[kind] = h
	for _, name := range h.typeNames {
		p.byType[name] = append(p.byType[name], h)
	}
	p.logger.Debug("Registering behaviour kind.", "kind", kind, "type_names", h.typeNames)
}

// Attach builds and stores a behaviour for every kind matching the entity's
// type tag. Entities matching no kind, and kinds whose factory fails, are left
// untouched.
func (p *Provider) Attach(ctx context.Context, e *entity.Instance) {
	if e == nil {
		return
	}
	for _, h := range p.handlersFor(e.TypeName) {
		p.attach(ctx, h, e)
	}
}

// Detach removes the behaviours of every kind matching the entity's type tag.
func (p *Provider) Detach(ctx context.Context, e *entity.Instance) {
	if e == nil {
		return
	}
	for _, h := range p.handlersFor(e.TypeName) {
		p.detach(ctx, h, e.ID)
	}
}

// DetachByID removes id from every kind registry, regardless of type tag. It
// is meant for deleted entities of which only the identifier is left.
func (p *Provider) DetachByID(ctx context.Context, id uuid.UUID) {
	for _, h := range p.allHandlers() {
		p.detach(ctx, h, id)
	}
}

// Has reports whether a behaviour of the given kind is attached to id.
func (p *Provider) Has(kind Kind, id uuid.UUID) bool {
	h, ok := p.handler(kind)
	return ok && h.registry.Contains(id)
}

// Lookup returns the behaviour of the given kind attached to id.
func (p *Provider) Lookup(kind Kind, id uuid.UUID) (Behaviour, bool) {
	h, ok := p.handler(kind)
	if !ok {
		return nil, false
	}
	return h.registry.Get(id)
}

// Count returns the number of behaviours of the given kind.
func (p *Provider) Count(kind Kind) int {
	h, ok := p.handler(kind)
	if !ok {
		return 0
	}
	return h.registry.Len()
}

// Kinds returns the registered kinds in registration order.
func (p *Provider) Kinds() []Kind {
	handlers := p.allHandlers()
	kinds := make([]Kind, len(handlers))
	for i, h := range handlers {
		kinds[i] = h.kind
	}
	return kinds
}

// Snapshot returns the attached entity identifiers per kind.
func (p *Provider) Snapshot() map[Kind][]uuid.UUID {
	out := make(map[Kind][]uuid.UUID)
	for _, h := range p.allHandlers() {
		out[h.kind] = h.registry.IDs()
	}
	return out
}

// Close detaches every behaviour of every kind.
func (p *Provider) Close(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, h := range p.allHandlers() {
		n := h.registry.Clear()
		logger.Debug("Cleared behaviour registry.", "kind", h.kind, "removed", n)
	}
}

func (p *Provider) attach(ctx context.Context, h *kindHandler, e *entity.Instance) {
	logger := ctxlog.FromContext(ctx)

	b, err := p.construct(ctx, h, e)
	if err != nil {
		logger.Debug("Behaviour not attached.", "kind", h.kind, "entity_id", e.ID, "error", err)
		if p.observer != nil {
			p.observer.AttachFailed(h.kind, e.ID, err)
		}
		return
	}

	h.registry.Insert(e.ID, b)
	logger.Debug("Added behaviour.", "kind", h.kind, "entity_id", e.ID)
	if p.observer != nil {
		p.observer.Attached(h.kind, e.ID)
	}
}

// construct calls the factory and turns nil results and panics into errors.
func (p *Provider) construct(ctx context.Context, h *kindHandler, e *entity.Instance) (b Behaviour, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("factory panicked: %v", r)
		}
	}()

	b, err = h.factory(ctx, e)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errNilBehaviour
	}
	return b, nil
}

func (p *Provider) detach(ctx context.Context, h *kindHandler, id uuid.UUID) {
	if !h.registry.Remove(id) {
		return
	}
	ctxlog.FromContext(ctx).Debug("Removed behaviour.", "kind", h.kind, "entity_id", id)
	if p.observer != nil {
		p.observer.Detached(h.kind, id)
	}
}

func (p *Provider) release(kind Kind, id uuid.UUID, b Behaviour) {
	if err := b.Close(); err != nil {
		p.logger.Debug("Behaviour close failed.", "kind", kind, "entity_id", id, "error", err)
	}
}

func (p *Provider) handler(kind Kind) (*kindHandler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h, ok := p.byKind[kind]
	return h, ok
}

func (p *Provider) handlersFor(typeName string) []*kindHandler {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*kindHandler(nil), p.byType[typeName]...)
}

func (p *Provider) allHandlers() []*kindHandler {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*kindHandler(nil), p.kinds...)
}
