// Package widget holds the static catalogue of widget types the dashboard can place.
package widget

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// ErrUnknownType is returned for a widget type absent from the registry.
var ErrUnknownType = errors.New("unknown widget type")

// Preset selects the size class a widget type gets from the size policy.
type Preset int

const (
	PresetDefault Preset = iota
	PresetChart
	PresetFeed
	PresetCompactTable
)

func (p Preset) String() string {
	switch p {
	case PresetChart:
		return "chart"
	case PresetFeed:
		return "feed"
	case PresetCompactTable:
		return "compact_table"
	default:
		return "default"
	}
}

// MarshalText encodes the preset by name.
func (p Preset) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Designated types that get their own presets when inferred by name.
const (
	FeedType         = "TwitterFeed"
	CompactTableType = "PerpetualSwaps"
)

// InferPreset classifies a type name: "Chart" substring first, then the designated
// feed type, then the designated compact table, else default.
func InferPreset(typ string) Preset {
	switch {
	case strings.Contains(typ, "Chart"):
		return PresetChart
	case typ == FeedType:
		return PresetFeed
	case typ == CompactTableType:
		return PresetCompactTable
	default:
		return PresetDefault
	}
}

// FieldType is the input kind of a configuration field.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldNumber     FieldType = "number"
	FieldBoolean    FieldType = "boolean"
	FieldStringList FieldType = "string_list"
)

// ConfigField describes one configurable property of a widget type.
type ConfigField struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
	Default any       `json:"default"`
}

// Definition is a registry entry.
type Definition struct {
	Type         string        `json:"type"`
	DisplayName  string        `json:"display_name"`
	Component    string        `json:"component"`
	Preset       Preset        `json:"preset"`
	DefaultProps model.Props   `json:"default_props"`
	ConfigFields []ConfigField `json:"config_fields"`
}

// TypeInfo is the listing shape consumed by the add-widget form.
type TypeInfo struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// Renderable is the descriptor the UI tree mounts into a grid cell.
type Renderable struct {
	Component string      `json:"component"`
	Props     model.Props `json:"props"`
}

// Registry is a read-only set of widget definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry. Types must be non-empty and unique.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Type == "" {
			return nil, errors.New("widget: definition with empty type")
		}
		if _, dup := r.defs[d.Type]; dup {
			return nil, fmt.Errorf("widget: duplicate type %q", d.Type)
		}
		if d.DisplayName == "" {
			d.DisplayName = d.Type
		}
		if d.Component == "" {
			d.Component = d.Type
		}
		if d.DefaultProps == nil {
			d.DefaultProps = defaultsFromFields(d.ConfigFields)
		}
		r.defs[d.Type] = d
	}
	return r, nil
}

func defaultsFromFields(fields []ConfigField) model.Props {
	props := make(model.Props, len(fields))
	for _, f := range fields {
		if f.Default != nil {
			props[f.Name] = f.Default
		}
	}
	return props
}

// Get returns the definition of typ or ErrUnknownType.
func (r *Registry) Get(typ string) (Definition, error) {
	d, ok := r.defs[typ]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return d, nil
}

// Lookup is Get without the error.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	d, ok := r.defs[typ]
	return d, ok
}

// PresetOf returns the size preset of typ; unknown types fall back to PresetDefault.
func (r *Registry) PresetOf(typ string) Preset {
	if d, ok := r.defs[typ]; ok {
		return d.Preset
	}
	return PresetDefault
}

// ListTypes returns every registered type sorted by display name.
func (r *Registry) ListTypes() []TypeInfo {
	out := make([]TypeInfo, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, TypeInfo{Type: d.Type, DisplayName: d.DisplayName})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName == out[j].DisplayName {
			return out[i].Type < out[j].Type
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

// ConfigFields returns the configurable fields of typ.
func (r *Registry) ConfigFields(typ string) ([]ConfigField, error) {
	d, err := r.Get(typ)
	if err != nil {
		return nil, err
	}
	return append([]ConfigField(nil), d.ConfigFields...), nil
}

// Render merges props over the type defaults and normalizes the result.
func (r *Registry) Render(typ string, props model.Props) (Renderable, error) {
	d, err := r.Get(typ)
	if err != nil {
		return Renderable{}, err
	}
	merged := d.DefaultProps.Clone()
	if merged == nil {
		merged = model.Props{}
	}
	for k, v := range props {
		merged[k] = v
	}
	return Renderable{Component: d.Component, Props: merged.Normalize()}, nil
}
