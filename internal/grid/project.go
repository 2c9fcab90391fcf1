package grid

import (
	"math"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// packColumns is how many widgets share a row in the initial packing.
const packColumns = 3

// InitialPacking is the base-breakpoint origin of the index-th widget when no stored
// geometry exists: three per row, four units apart.
func InitialPacking(index int) (x, y int) {
	return (index % packColumns) * 4, (index / packColumns) * 4
}

// Project derives the layout of target from base entries. types maps widget id to
// widget type; ids absent from types are sized with the default preset.
// Projecting an already projected layout for the same target is a no-op.
func (p *Policy) Project(base []model.LayoutEntry, types map[string]string, target model.Breakpoint) []model.LayoutEntry {
	out := make([]model.LayoutEntry, len(base))
	for i, e := range base {
		out[i] = p.ProjectEntry(e, types[e.WidgetID], target)
	}
	return out
}

// ProjectEntry re-derives one entry for target from the widget's type.
func (p *Policy) ProjectEntry(e model.LayoutEntry, typ string, target model.Breakpoint) model.LayoutEntry {
	size := p.SizeFor(typ, target)
	return model.LayoutEntry{
		WidgetID: e.WidgetID,
		X:        clampX(e.X, size.W, target),
		Y:        e.Y,
		W:        size.W,
		H:        size.H,
		MinW:     size.MinW,
		MinH:     size.MinH,
	}
}

// Place builds the entry of a widget of typ at origin (x, y) on bp.
func (p *Policy) Place(id, typ string, x, y int, bp model.Breakpoint) model.LayoutEntry {
	return p.ProjectEntry(model.LayoutEntry{WidgetID: id, X: x, Y: y}, typ, bp)
}

func clampX(x int, w float64, bp model.Breakpoint) int {
	if bp.SingleColumn() {
		return 0
	}
	limit := int(math.Max(0, math.Floor(float64(bp.Columns())-w)))
	if x > limit {
		return limit
	}
	if x < 0 {
		return 0
	}
	return x
}
