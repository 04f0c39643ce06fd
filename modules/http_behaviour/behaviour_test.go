package http_behaviour

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/specialistvlad/behaviourgrid/modules/http_client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func statusOf(e *entity.Instance) int64 {
	v, ok := e.Get(PropStatus)
	if !ok || v.IsNull() {
		return 0
	}
	n, _ := v.AsBigFloat().Int64()
	return n
}

func newProvider(t *testing.T) *provider.Provider {
	t.Helper()
	m := &Module{Timeout: 5 * time.Second}
	p := provider.New()
	m.Register(p)
	t.Cleanup(func() {
		p.Close(context.Background())
		_ = m.Close()
	})
	return p
}

func TestTrigger_PerformsRequestAndWritesResult(t *testing.T) {
	var mu sync.Mutex
	var gotMethod, gotHeader, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Sensor")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"temperature": 21.5})
	}))
	defer srv.Close()

	p := newProvider(t)
	e := entity.New("http", map[string]cty.Value{
		PropURL:            cty.StringVal(srv.URL),
		PropMethod:         cty.StringVal("post"),
		PropRequestHeaders: cty.ObjectVal(map[string]cty.Value{"X-Sensor": cty.StringVal("kitchen")}),
		PropPayload:        cty.ObjectVal(map[string]cty.Value{"unit": cty.StringVal("celsius")}),
	})
	p.Attach(context.Background(), e)
	require.True(t, p.Has(provider.KindHTTP, e.ID))

	e.Set(PropTrigger, cty.True)

	require.Eventually(t, func() bool { return statusOf(e) == http.StatusCreated }, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "kitchen", gotHeader)
	assert.JSONEq(t, `{"unit": "celsius"}`, gotBody)

	result, ok := e.Get(PropResult)
	require.True(t, ok)
	require.True(t, result.Type().IsObjectType())
	assert.True(t, result.GetAttr("temperature").Equals(cty.NumberFloatVal(21.5)).True())

	headers, err := e.StringMap(PropResponseHeaders)
	require.NoError(t, err)
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestTriggerFalse_DoesNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := newProvider(t)
	e := entity.New("http", map[string]cty.Value{
		PropURL:    cty.StringVal(srv.URL),
		PropMethod: cty.StringVal("GET"),
	})
	p.Attach(context.Background(), e)

	e.Set(PropTrigger, cty.False)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, hits.Load())
}

func TestPollInterval_PollsUntilDetached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "pong")
	}))
	defer srv.Close()

	p := newProvider(t)
	e := entity.New("http", map[string]cty.Value{
		PropURL:          cty.StringVal(srv.URL),
		PropMethod:       cty.StringVal("GET"),
		PropPollInterval: cty.StringVal("20ms"),
	})
	p.Attach(context.Background(), e)

	require.Eventually(t, func() bool { return hits.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	result, ok := e.Get(PropResult)
	require.True(t, ok)
	assert.Equal(t, "pong", result.AsString())

	p.Detach(context.Background(), e)
	assert.Zero(t, e.ObserverCount(PropTrigger))

	time.Sleep(30 * time.Millisecond)
	settled := hits.Load()
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, hits.Load(), settled+1, "poll loop must stop after detach")
}

func TestNew_InvalidEntitiesAreRejectedWithoutSideEffects(t *testing.T) {
	testCases := []struct {
		name  string
		props map[string]cty.Value
	}{
		{
			name:  "missing url",
			props: map[string]cty.Value{PropMethod: cty.StringVal("GET")},
		},
		{
			name:  "missing method",
			props: map[string]cty.Value{PropURL: cty.StringVal("http://localhost")},
		},
		{
			name: "headers not a map of strings",
			props: map[string]cty.Value{
				PropURL:            cty.StringVal("http://localhost"),
				PropMethod:         cty.StringVal("GET"),
				PropRequestHeaders: cty.StringVal("Accept: */*"),
			},
		},
		{
			name: "bad poll interval",
			props: map[string]cty.Value{
				PropURL:          cty.StringVal("http://localhost"),
				PropMethod:       cty.StringVal("GET"),
				PropPollInterval: cty.StringVal("-1s"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newProvider(t)
			e := entity.New("http", tc.props)

			p.Attach(context.Background(), e)

			assert.False(t, p.Has(provider.KindHTTP, e.ID))
			assert.Zero(t, e.ObserverCount(PropTrigger))
		})
	}
}

func TestExecute_TransportErrorIsWrittenToEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := http_client.New(time.Second)
	defer client.Close()
	e := entity.New("http", map[string]cty.Value{
		PropURL:    cty.StringVal(url),
		PropMethod: cty.StringVal("GET"),
	})
	b, err := New(context.Background(), client, e)
	require.NoError(t, err)
	defer b.Close()

	err = b.Execute(context.Background())
	require.Error(t, err)

	v, ok := e.Get(PropError)
	require.True(t, ok)
	assert.NotEmpty(t, v.AsString())
	assert.NoError(t, b.Close())
}

func TestExecute_ResponseAfterCloseIsDropped(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		_, _ = io.WriteString(w, "late")
	}))
	defer srv.Close()

	client := http_client.New(5 * time.Second)
	defer client.Close()
	e := entity.New("http", map[string]cty.Value{
		PropURL:    cty.StringVal(srv.URL),
		PropMethod: cty.StringVal("GET"),
	})
	b, err := New(context.Background(), client, e)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- b.Execute(context.Background()) }()

	<-arrived
	require.NoError(t, b.Close())
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return")
	}
	for _, name := range []string{PropStatus, PropResult, PropResponseHeaders, PropError} {
		_, ok := e.Get(name)
		assert.False(t, ok, "%s written after close", name)
	}
}
