// Package grid derives per-breakpoint widget geometry for the responsive dashboard.
//
// Sizes are in grid units. Collision handling and vertical packing belong to the
// browser grid library; this package only guarantees that every entry it emits
// fits its tier's column count and respects the widget's minimums.
package grid

import (
	"fmt"
	"math"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

// Size is a widget footprint with its resize lower bounds.
type Size struct {
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	MinW float64 `json:"minW"`
	MinH float64 `json:"minH"`
}

var presets = map[widget.Preset]Size{
	widget.PresetChart:        {W: 6, H: 6, MinW: 4, MinH: 4},
	widget.PresetFeed:         {W: 6, H: 8, MinW: 2, MinH: 6},
	widget.PresetCompactTable: {W: 6, H: 3.5, MinW: 4, MinH: 2.5},
	widget.PresetDefault:      {W: 4, H: 4, MinW: 3, MinH: 3},
}

// BaseSize returns the largest-breakpoint size of a preset.
func BaseSize(p widget.Preset) Size {
	if s, ok := presets[p]; ok {
		return s
	}
	return presets[widget.PresetDefault]
}

// SizeFor returns the size of a preset on bp. It panics on an unknown breakpoint.
func SizeFor(p widget.Preset, bp model.Breakpoint) Size {
	base := BaseSize(p)
	switch bp {
	case model.BreakpointXXS:
		return fullWidth(base, bp, 4)
	case model.BreakpointXS:
		return fullWidth(base, bp, 5)
	case model.BreakpointSM:
		cols := float64(bp.Columns())
		w := math.Min(cols, math.Max(math.Floor(cols/2), base.MinW))
		return Size{W: w, H: math.Max(base.H, 4), MinW: w, MinH: base.MinH}
	case model.BreakpointLG, model.BreakpointMD:
		return base
	default:
		panic(fmt.Sprintf("grid: size requested for unknown breakpoint %q", string(bp)))
	}
}

func fullWidth(base Size, bp model.Breakpoint, minHeight float64) Size {
	cols := float64(bp.Columns())
	return Size{W: cols, H: math.Max(base.H, minHeight), MinW: cols, MinH: base.MinH}
}

// Policy resolves widget types to sizes through a registry.
type Policy struct {
	registry *widget.Registry
}

// NewPolicy binds the size policy to a widget registry.
func NewPolicy(r *widget.Registry) *Policy {
	return &Policy{registry: r}
}

// Registry returns the registry the policy resolves types through.
func (p *Policy) Registry() *widget.Registry { return p.registry }

// MinSize returns the base size of a widget type. Unknown types get the default preset
// so externally loaded layouts can still be repaired.
func (p *Policy) MinSize(typ string) Size {
	return BaseSize(p.registry.PresetOf(typ))
}

// SizeFor returns the size of a widget type on bp.
func (p *Policy) SizeFor(typ string, bp model.Breakpoint) Size {
	return SizeFor(p.registry.PresetOf(typ), bp)
}
