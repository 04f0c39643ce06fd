package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/behaviourgrid/internal/config"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateSettings converts a settings block into the agnostic model.
func translateSettings(s *settingsBlock) (config.Settings, error) {
	var out config.Settings
	if s.LogLevel != nil {
		out.LogLevel = *s.LogLevel
	}
	if s.LogFormat != nil {
		out.LogFormat = *s.LogFormat
	}
	if s.Port != nil {
		out.Port = *s.Port
	}
	if s.HTTPTimeout != nil {
		d, err := time.ParseDuration(*s.HTTPTimeout)
		if err != nil {
			return out, fmt.Errorf("invalid http_timeout %q: %w", *s.HTTPTimeout, err)
		}
		out.HTTPTimeout = d
	}
	if s.Events != nil {
		out.Events.URL = s.Events.URL
		if s.Events.Namespace != nil {
			out.Events.Namespace = *s.Events.Namespace
		}
	}
	return out, nil
}

// translateEntity converts an entity block into the agnostic model,
// evaluating its properties expression.
func translateEntity(ctx context.Context, b *entityBlock, source string, evalCtx *hcl.EvalContext) (*config.Entity, error) {
	logger := ctxlog.FromContext(ctx)
	e := &config.Entity{
		Type:       b.Type,
		Properties: map[string]cty.Value{},
		Source:     source,
	}
	if b.Type == "" {
		return nil, fmt.Errorf("%s: entity block must have a non-empty type label", source)
	}

	if b.ID != nil {
		id, err := uuid.Parse(*b.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: entity %q has invalid id %q: %w", source, b.Type, *b.ID, err)
		}
		e.ID = id
	}

	if b.Properties == nil {
		return e, nil
	}
	val, diags := b.Properties.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: entity %q properties: %w", source, b.Type, diags)
	}
	if val.IsNull() {
		logger.Debug("Entity has no properties.", "type", b.Type, "source", source)
		return e, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("%s: entity %q properties must be known at load time", source, b.Type)
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%s: entity %q properties must be an object, got %s", source, b.Type, ty.FriendlyName())
	}
	for name, v := range val.AsValueMap() {
		e.Properties[name] = v
	}
	return e, nil
}
