package entity

import (
	"bytes"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// FromJSON converts a JSON document into a cty value, inferring its type.
// An empty document yields a dynamic null.
func FromJSON(b []byte) (cty.Value, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	ty, err := ctyjson.ImpliedType(b)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to infer type of JSON value: %w", err)
	}
	v, err := ctyjson.Unmarshal(b, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to decode JSON value: %w", err)
	}
	return v, nil
}

// FromJSONOrString converts b like FromJSON, falling back to a plain string
// value when b is not valid JSON.
func FromJSONOrString(b []byte) cty.Value {
	v, err := FromJSON(b)
	if err != nil {
		return cty.StringVal(string(b))
	}
	return v
}

// ToJSON renders a cty value as JSON.
func ToJSON(v cty.Value) ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	return ctyjson.Marshal(v, v.Type())
}

// PropertiesFromJSON converts a JSON object into a property map.
func PropertiesFromJSON(b []byte) (map[string]cty.Value, error) {
	v, err := FromJSON(b)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return map[string]cty.Value{}, nil
	}
	if !v.Type().IsObjectType() {
		return nil, fmt.Errorf("properties must be a JSON object, got %s", v.Type().FriendlyName())
	}
	return v.AsValueMap(), nil
}

// PropertiesToJSON renders a property map as a JSON object.
func PropertiesToJSON(props map[string]cty.Value) ([]byte, error) {
	if len(props) == 0 {
		return []byte("{}"), nil
	}
	return ToJSON(cty.ObjectVal(props))
}
