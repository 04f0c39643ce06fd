package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// ErrMissingProperty is returned when a required property is absent, null or unknown.
	ErrMissingProperty = errors.New("entity: missing property")
	// ErrPropertyType is returned when a property cannot be converted to the requested type.
	ErrPropertyType = errors.New("entity: property has wrong type")
)

// RequireProperties checks that every named property is present and set.
func (e *Instance) RequireProperties(names ...string) error {
	for _, name := range names {
		if _, err := e.value(name); err != nil {
			return err
		}
	}
	return nil
}

// RequireString returns a required property converted to a string.
func (e *Instance) RequireString(name string) (string, error) {
	v, err := e.value(name)
	if err != nil {
		return "", err
	}
	return toString(name, v)
}

// OptionalString returns a property converted to a string. The boolean is
// false when the property is absent or null.
func (e *Instance) OptionalString(name string) (string, bool, error) {
	v, err := e.value(name)
	if errors.Is(err, ErrMissingProperty) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s, err := toString(name, v)
	return s, err == nil, err
}

// OptionalDuration parses a property holding a Go duration string such as "30s".
func (e *Instance) OptionalDuration(name string) (time.Duration, bool, error) {
	s, ok, err := e.OptionalString(name)
	if err != nil || !ok || s == "" {
		return 0, false, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q: %v", ErrPropertyType, name, err)
	}
	return d, true, nil
}

// StringMap returns an object or map property as map[string]string. An absent
// property yields an empty map.
func (e *Instance) StringMap(name string) (map[string]string, error) {
	out := map[string]string{}
	v, err := e.value(name)
	if errors.Is(err, ErrMissingProperty) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if ty := v.Type(); (ty.IsObjectType() || ty.IsMapType()) && v.LengthInt() == 0 {
		return out, nil
	}
	converted, err := convert.Convert(v, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPropertyType, name, err)
	}
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPropertyType, name, err)
	}
	return out, nil
}

// IsTrue reports whether v is a known, non-null boolean true.
func IsTrue(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.Bool) {
		return false
	}
	return v.True()
}

func (e *Instance) value(name string) (cty.Value, error) {
	v, ok := e.Get(name)
	if !ok || v.IsNull() || !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("%w: %q on entity %s", ErrMissingProperty, name, e.ID)
	}
	return v, nil
}

func toString(name string, v cty.Value) (string, error) {
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("%w: %q must be a string, got %s", ErrPropertyType, name, v.Type().FriendlyName())
	}
	return sv.AsString(), nil
}
