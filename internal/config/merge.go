package config

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
)

// Merge layers models in order. Non-zero settings of later models win;
// entities are concatenated. Two entities pinning the same id are an error.
func Merge(models ...*Model) (*Model, error) {
	out := NewModel()
	seen := make(map[uuid.UUID]string)

	for _, m := range models {
		if m == nil {
			continue
		}
		out.Settings = out.Settings.Override(m.Settings)
		for _, e := range m.Entities {
			if e.ID != uuid.Nil {
				if prev, dup := seen[e.ID]; dup {
					return nil, fmt.Errorf("entity id %s declared twice (%s and %s)", e.ID, prev, e.Source)
				}
				seen[e.ID] = e.Source
			}
			out.Entities = append(out.Entities, e)
		}
	}
	return out, nil
}

// Override returns s with every non-zero field of o applied on top.
func (s Settings) Override(o Settings) Settings {
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		s.LogFormat = o.LogFormat
	}
	if o.Port != 0 {
		s.Port = o.Port
	}
	if o.HTTPTimeout != 0 {
		s.HTTPTimeout = o.HTTPTimeout
	}
	if o.Events.URL != "" {
		s.Events.URL = o.Events.URL
	}
	if o.Events.Namespace != "" {
		s.Events.Namespace = o.Events.Namespace
	}
	return s
}

// Chain runs several loaders over the same paths and merges their models.
type Chain []Loader

// Load implements Loader.
func (c Chain) Load(ctx context.Context, paths ...string) (*Model, error) {
	models := make([]*Model, 0, len(c))
	for _, l := range c {
		m, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	merged, err := Merge(models...)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Configuration merged.", "loaders", len(c), "entities", len(merged.Entities))
	return merged, nil
}
