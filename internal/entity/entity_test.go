package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestNewWithID_CopiesProperties(t *testing.T) {
	id := uuid.New()
	props := map[string]cty.Value{"url": cty.StringVal("http://example.com")}

	e := NewWithID(id, "http", props)
	props["url"] = cty.StringVal("changed")

	assert.Equal(t, id, e.ID)
	assert.Equal(t, "http", e.TypeName)
	v, ok := e.Get("url")
	require.True(t, ok)
	assert.Equal(t, "http://example.com", v.AsString())
}

func TestSet_NotifiesObserversOfThatProperty(t *testing.T) {
	e := New("http", nil)
	var seen []string

	h := e.Observe("trigger", func(name string, value cty.Value) {
		seen = append(seen, name)
		assert.True(t, IsTrue(value))
	})
	e.Observe("other", func(string, cty.Value) {
		t.Error("observer for a different property must not fire")
	})

	e.Set("trigger", cty.True)
	assert.Equal(t, []string{"trigger"}, seen)
	assert.Equal(t, 1, e.ObserverCount("trigger"))

	e.Unobserve("trigger", h)
	e.Set("trigger", cty.True)
	assert.Len(t, seen, 1)
	assert.Equal(t, 0, e.ObserverCount("trigger"))
}

func TestSet_ObserverMayWriteProperties(t *testing.T) {
	e := New("http", nil)
	e.Observe("trigger", func(string, cty.Value) {
		e.Set("result", cty.StringVal("done"))
	})

	e.Set("trigger", cty.True)

	v, ok := e.Get("result")
	require.True(t, ok)
	assert.Equal(t, "done", v.AsString())
}

func TestUnobserve_UnknownHandleIsIgnored(t *testing.T) {
	e := New("http", nil)
	h := e.Observe("trigger", func(string, cty.Value) {})
	e.Unobserve("trigger", h+100)
	assert.Equal(t, 1, e.ObserverCount("trigger"))
}

func TestPropertyHelpers(t *testing.T) {
	e := New("http", map[string]cty.Value{
		"url":             cty.StringVal("http://example.com"),
		"port":            cty.NumberIntVal(8080),
		"nothing":         cty.NullVal(cty.String),
		"list":            cty.ListVal([]cty.Value{cty.StringVal("a")}),
		"request_headers": cty.ObjectVal(map[string]cty.Value{"Accept": cty.StringVal("application/json")}),
		"poll_interval":   cty.StringVal("250ms"),
		"bad_interval":    cty.StringVal("soon"),
	})

	testCases := []struct {
		name      string
		check     func() error
		expectErr error
	}{
		{
			name:  "required string present",
			check: func() error { _, err := e.RequireString("url"); return err },
		},
		{
			name:  "number converts to string",
			check: func() error { _, err := e.RequireString("port"); return err },
		},
		{
			name:      "null counts as missing",
			check:     func() error { _, err := e.RequireString("nothing"); return err },
			expectErr: ErrMissingProperty,
		},
		{
			name:      "absent counts as missing",
			check:     func() error { return e.RequireProperties("url", "method") },
			expectErr: ErrMissingProperty,
		},
		{
			name:      "list is not a string",
			check:     func() error { _, err := e.RequireString("list"); return err },
			expectErr: ErrPropertyType,
		},
		{
			name:      "unparsable duration",
			check:     func() error { _, _, err := e.OptionalDuration("bad_interval"); return err },
			expectErr: ErrPropertyType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.check()
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	headers, err := e.StringMap("request_headers")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, headers)

	empty, err := e.StringMap("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	d, ok, err := e.OptionalDuration("poll_interval")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)

	_, ok, err = e.OptionalString("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsTrue(t *testing.T) {
	assert.True(t, IsTrue(cty.True))
	assert.False(t, IsTrue(cty.False))
	assert.False(t, IsTrue(cty.NullVal(cty.Bool)))
	assert.False(t, IsTrue(cty.UnknownVal(cty.Bool)))
	assert.False(t, IsTrue(cty.StringVal("true")))
}
