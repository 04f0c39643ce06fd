package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/entitystore"
	"github.com/specialistvlad/behaviourgrid/internal/metrics"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type stubBehaviour struct{}

func (stubBehaviour) Kind() provider.Kind { return provider.KindHTTP }
func (stubBehaviour) Close() error        { return nil }

type fixture struct {
	server   *Server
	store    *entitystore.Store
	provider *provider.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := metrics.New()
	p := provider.New(provider.WithObserver(m))
	p.Register(provider.KindHTTP, func(_ context.Context, e *entity.Instance) (provider.Behaviour, error) {
		if _, err := e.RequireString("url"); err != nil {
			return nil, err
		}
		return stubBehaviour{}, nil
	})
	m.TrackBehaviours(p)
	store := entitystore.New(p)
	return &fixture{
		server:   New(context.Background(), store, p, m.Handler()),
		store:    store,
		provider: p,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.server.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK\n", rr.Body.String())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/entities", `{"type":"http","properties":{"url":"http://a"}}`)

	rr := f.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `behaviourgrid_behaviours{kind="http"} 1`)
}

func TestEntityLifecycle(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	// Create
	rr := f.do(t, "POST", "/entities", `{"type":"http","id":"`+id.String()+`","properties":{"url":"http://a","n":1}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created entityResponse
	decode(t, rr, &created)
	assert.Equal(t, id.String(), created.ID)
	assert.Equal(t, "http", created.Type)
	assert.JSONEq(t, `{"url":"http://a","n":1}`, string(created.Properties))
	assert.True(t, f.provider.Has(provider.KindHTTP, id))

	// Duplicate
	rr = f.do(t, "POST", "/entities", `{"type":"http","id":"`+id.String()+`"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Get
	rr = f.do(t, "GET", "/entities/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	// Set property
	rr = f.do(t, "PUT", "/entities/"+id.String()+"/properties/trigger", `true`)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	e, _ := f.store.Get(id)
	v, ok := e.Get("trigger")
	require.True(t, ok)
	assert.Equal(t, cty.True, v)

	// Behaviours
	rr = f.do(t, "GET", "/behaviours", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var behaviours map[string][]string
	decode(t, rr, &behaviours)
	assert.Equal(t, []string{id.String()}, behaviours["http"])

	// Reconfigure without url drops the http behaviour.
	rr = f.do(t, "POST", "/entities/"+id.String()+"/reconfigure", `{"properties":{"url":null}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.False(t, f.provider.Has(provider.KindHTTP, id))

	// List
	rr = f.do(t, "GET", "/entities", "")
	var list []entityResponse
	decode(t, rr, &list)
	require.Len(t, list, 1)

	// Delete
	rr = f.do(t, "DELETE", "/entities/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, "DELETE", "/entities/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = f.do(t, "GET", "/entities/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New().String()

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "malformed body", method: "POST", path: "/entities", body: `{`, want: http.StatusBadRequest},
		{name: "unknown field", method: "POST", path: "/entities", body: `{"type":"http","colour":"red"}`, want: http.StatusBadRequest},
		{name: "missing type", method: "POST", path: "/entities", body: `{"properties":{}}`, want: http.StatusBadRequest},
		{name: "bad id", method: "POST", path: "/entities", body: `{"type":"http","id":"nope"}`, want: http.StatusBadRequest},
		{name: "properties not object", method: "POST", path: "/entities", body: `{"type":"http","properties":[1]}`, want: http.StatusBadRequest},
		{name: "bad path id", method: "GET", path: "/entities/nope", want: http.StatusBadRequest},
		{name: "set on missing entity", method: "PUT", path: "/entities/" + missing + "/properties/trigger", body: `true`, want: http.StatusNotFound},
		{name: "set invalid json", method: "PUT", path: "/entities/" + missing + "/properties/trigger", body: `{`, want: http.StatusBadRequest},
		{name: "reconfigure missing entity", method: "POST", path: "/entities/" + missing + "/reconfigure", body: `{}`, want: http.StatusNotFound},
		{name: "wrong method", method: "PATCH", path: "/entities", want: http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}
}

func TestUnknownTypeIsAccepted(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "POST", "/entities", `{"type":"unknown"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created entityResponse
	decode(t, rr, &created)
	assert.JSONEq(t, `{}`, string(created.Properties))
	assert.Zero(t, f.provider.Count(provider.KindHTTP))
}

func TestShutdown_NotStarted(t *testing.T) {
	f := newFixture(t)
	f.server.Start(0)
	assert.NoError(t, f.server.Shutdown(context.Background()))
}
