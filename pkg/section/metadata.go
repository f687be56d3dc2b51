package section

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Metadata maps keys to connector-provided values.
type Metadata map[string]MetaValue

// MetaValue is a metadata value: either one string or a list of strings.
// Encoding keeps the shape it was decoded with.
type MetaValue struct {
	Values []string
	IsList bool
}

// Text returns a single-string value.
func Text(v string) MetaValue {
	return MetaValue{Values: []string{v}}
}

// List returns a list value.
func List(vs ...string) MetaValue {
	return MetaValue{Values: vs, IsList: true}
}

// String joins list values with ", ".
func (v MetaValue) String() string {
	return strings.Join(v.Values, ", ")
}

func (v MetaValue) clone() MetaValue {
	v.Values = slices.Clone(v.Values)
	return v
}

func (v MetaValue) plain() any {
	if v.IsList {
		if v.Values == nil {
			return []string{}
		}
		return v.Values
	}
	return v.String()
}

func (v MetaValue) MarshalYAML() (any, error) {
	return v.plain(), nil
}

func (v *MetaValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Text(node.Value)
		return nil
	case yaml.SequenceNode:
		var vs []string
		if err := node.Decode(&vs); err != nil {
			return err
		}
		*v = List(vs...)
		return nil
	}
	return fmt.Errorf("line %d: metadata value must be a string or a list of strings", node.Line)
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.plain())
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("metadata value must be a string or a list of strings: %w", err)
	}
	*v = List(vs...)
	return nil
}

func (v MetaValue) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(v.plain())
}

func (v *MetaValue) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var vs []string
	if err := cbor.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("metadata value must be a string or a list of strings: %w", err)
	}
	*v = List(vs...)
	return nil
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return out
}

// Keys returns the keys of m in sorted order.
func (m Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}
