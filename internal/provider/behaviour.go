package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
)

// Behaviour is a unit of runtime functionality bound to one entity instance.
//
// Close is called once the behaviour leaves its kind registry, either because
// it was detached or because a later attach replaced it. Implementations stop
// their observers and background work there.
type Behaviour interface {
	Kind() Kind
	Close() error
}

// Factory builds a behaviour bound to e. It runs synchronously inside Attach
// and must not block on I/O. On error it must leave no trace on the entity.
type Factory func(ctx context.Context, e *entity.Instance) (Behaviour, error)

// Observer receives attachment notifications. Implementations must be safe for
// concurrent use and must not call back into the Provider.
type Observer interface {
	Attached(kind Kind, id uuid.UUID)
	Detached(kind Kind, id uuid.UUID)
	AttachFailed(kind Kind, id uuid.UUID, err error)
}

// Module is the interface behaviour modules implement to register their kinds.
type Module interface {
	Register(p *Provider)
}
