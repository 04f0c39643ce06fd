package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Override(t *testing.T) {
	base := Settings{LogLevel: "info", LogFormat: "json", Port: 8080, HTTPTimeout: time.Second}
	got := base.Override(Settings{LogLevel: "debug", Events: EventsSettings{URL: "http://feed"}})

	assert.Equal(t, Settings{
		LogLevel:    "debug",
		LogFormat:   "json",
		Port:        8080,
		HTTPTimeout: time.Second,
		Events:      EventsSettings{URL: "http://feed"},
	}, got)
}

func TestMerge(t *testing.T) {
	id := uuid.New()
	a := &Model{
		Settings: Settings{Port: 1},
		Entities: []*Entity{{Type: "http", ID: id, Source: "a.hcl"}},
	}
	b := &Model{
		Settings: Settings{Port: 2},
		Entities: []*Entity{{Type: "jsonrpc", Source: "b.yaml"}, {Type: "jsonrpc", Source: "b.yaml"}},
	}

	m, err := Merge(a, nil, b)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Settings.Port)
	require.Len(t, m.Entities, 3)
	assert.Equal(t, "http", m.Entities[0].Type)

	_, err = Merge(a, &Model{Entities: []*Entity{{Type: "http", ID: id, Source: "c.hcl"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

type loaderFunc func(ctx context.Context, paths ...string) (*Model, error)

func (f loaderFunc) Load(ctx context.Context, paths ...string) (*Model, error) { return f(ctx, paths...) }

func TestChain_Load(t *testing.T) {
	first := loaderFunc(func(_ context.Context, paths ...string) (*Model, error) {
		assert.Equal(t, []string{"cfg"}, paths)
		return &Model{Settings: Settings{LogLevel: "warn"}}, nil
	})
	second := loaderFunc(func(_ context.Context, _ ...string) (*Model, error) {
		return &Model{Entities: []*Entity{{Type: "http"}}}, nil
	})

	m, err := Chain{first, second}.Load(context.Background(), "cfg")
	require.NoError(t, err)
	assert.Equal(t, "warn", m.Settings.LogLevel)
	assert.Len(t, m.Entities, 1)

	boom := errors.New("boom")
	failing := loaderFunc(func(_ context.Context, _ ...string) (*Model, error) { return nil, boom })
	_, err = Chain{first, failing}.Load(context.Background(), "cfg")
	assert.ErrorIs(t, err, boom)
}
