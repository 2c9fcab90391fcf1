package grid

import (
	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// Repair returns a copy of d whose layouts hold exactly one entry per widget per
// breakpoint, in widget order. Orphan and duplicate entries are dropped. A widget
// missing from the base tier is placed by InitialPacking; a widget missing from any
// other tier is projected from its base entry. The second result counts the entries
// synthesized or dropped.
func (p *Policy) Repair(d model.Dashboard) (model.Dashboard, int) {
	out := d.Clone()
	fixed := 0

	unique := out.Components[:0]
	seen := make(map[string]bool, len(out.Components))
	for _, w := range out.Components {
		if seen[w.ID] {
			fixed++
			continue
		}
		seen[w.ID] = true
		unique = append(unique, w)
	}
	out.Components = unique
	types := TypesOf(out.Components)

	layouts := make(model.Layouts, len(model.Breakpoints()))
	var base map[string]model.LayoutEntry
	for _, bp := range model.Breakpoints() {
		existing := make(map[string]model.LayoutEntry, len(out.Components))
		for _, e := range d.Layouts[bp] {
			if _, known := types[e.WidgetID]; !known {
				fixed++
				continue
			}
			if _, dup := existing[e.WidgetID]; dup {
				fixed++
				continue
			}
			existing[e.WidgetID] = e
		}

		entries := make([]model.LayoutEntry, 0, len(out.Components))
		for i, w := range out.Components {
			if e, ok := existing[w.ID]; ok {
				entries = append(entries, e)
				continue
			}
			fixed++
			if bp == model.BaseBreakpoint {
				x, y := InitialPacking(i)
				entries = append(entries, p.Place(w.ID, w.Type, x, y, bp))
				continue
			}
			entries = append(entries, p.ProjectEntry(base[w.ID], w.Type, bp))
		}
		if bp == model.BaseBreakpoint {
			base = make(map[string]model.LayoutEntry, len(entries))
			for _, e := range entries {
				base[e.WidgetID] = e
			}
		}
		layouts[bp] = entries
	}
	out.Layouts = layouts
	return out, fixed
}

// TypesOf maps widget id to widget type.
func TypesOf(widgets []model.WidgetInstance) map[string]string {
	types := make(map[string]string, len(widgets))
	for _, w := range widgets {
		types[w.ID] = w.Type
	}
	return types
}
