package app

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/events"
)

// feedRelay forwards store changes to the events feed once Run has dialed it.
type feedRelay struct {
	feed atomic.Pointer[events.Feed]
}

func (r *feedRelay) EntityCreated(e *entity.Instance) {
	if f := r.feed.Load(); f != nil {
		f.EntityCreated(e)
	}
}

func (r *feedRelay) EntityReconfigured(e *entity.Instance) {
	if f := r.feed.Load(); f != nil {
		f.EntityReconfigured(e)
	}
}

func (r *feedRelay) EntityDeleted(id uuid.UUID) {
	if f := r.feed.Load(); f != nil {
		f.EntityDeleted(id)
	}
}
