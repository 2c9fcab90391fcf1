package model

import (
	"fmt"
	"sort"
	"strings"
)

// Props is the configuration bag of a widget instance.
type Props map[string]any

// Normalize returns a copy with list values folded into comma-joined strings.
func (p Props) Normalize() Props {
	if p == nil {
		return Props{}
	}
	out := make(Props, len(p))
	for k, v := range p {
		switch vv := v.(type) {
		case []string:
			out[k] = strings.Join(vv, ",")
		case []any:
			parts := make([]string, 0, len(vv))
			for _, item := range vv {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = v
		}
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// WidgetInstance is a placed widget: its type and configuration, not its position.
type WidgetInstance struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Props Props  `json:"props"`
}

// LayoutEntry is the grid geometry of one widget at one breakpoint.
type LayoutEntry struct {
	WidgetID string  `json:"i"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	MinW     float64 `json:"minW"`
	MinH     float64 `json:"minH"`
}

// Layouts maps each breakpoint to its ordered layout entries.
type Layouts map[Breakpoint][]LayoutEntry

// Clone deep-copies l.
func (l Layouts) Clone() Layouts {
	out := make(Layouts, len(l))
	for bp, entries := range l {
		out[bp] = append(make([]LayoutEntry, 0, len(entries)), entries...)
	}
	return out
}

// Index maps widget id to position within the entries of bp.
func (l Layouts) Index(bp Breakpoint) map[string]int {
	entries := l[bp]
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		idx[e.WidgetID] = i
	}
	return idx
}

// Entry returns the layout entry of widget id at bp.
func (l Layouts) Entry(bp Breakpoint, id string) (LayoutEntry, bool) {
	for _, e := range l[bp] {
		if e.WidgetID == id {
			return e, true
		}
	}
	return LayoutEntry{}, false
}

// Dashboard is a persisted widget arrangement.
type Dashboard struct {
	ID         *int64           `json:"id"`
	Name       string           `json:"name"`
	Components []WidgetInstance `json:"components"`
	Layouts    Layouts          `json:"layouts"`
	Updated    int64            `json:"updated,omitempty"`
}

// Clone deep-copies d.
func (d Dashboard) Clone() Dashboard {
	out := d
	if d.ID != nil {
		id := *d.ID
		out.ID = &id
	}
	out.Components = make([]WidgetInstance, len(d.Components))
	for i, w := range d.Components {
		w.Props = w.Props.Clone()
		out.Components[i] = w
	}
	out.Layouts = d.Layouts.Clone()
	return out
}

// ProblemKind classifies a layout integrity problem.
type ProblemKind string

const (
	ProblemMissing ProblemKind = "missing"
	ProblemOrphan  ProblemKind = "orphan"
	ProblemDup     ProblemKind = "duplicate"
)

// Problem is a single integrity violation found in a dashboard's layouts.
type Problem struct {
	Breakpoint Breakpoint  `json:"breakpoint"`
	WidgetID   string      `json:"widget_id"`
	Kind       ProblemKind `json:"kind"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %s entry for %q", p.Breakpoint, p.Kind, p.WidgetID)
}

// CheckIntegrity reports every breakpoint whose entries do not match the widget set
// exactly. Problems are ordered by breakpoint then widget id.
func (d Dashboard) CheckIntegrity() []Problem {
	known := make(map[string]bool, len(d.Components))
	for _, w := range d.Components {
		known[w.ID] = true
	}

	var problems []Problem
	for _, bp := range Breakpoints() {
		var found []Problem
		seen := make(map[string]int)
		for _, e := range d.Layouts[bp] {
			seen[e.WidgetID]++
			if !known[e.WidgetID] {
				found = append(found, Problem{Breakpoint: bp, WidgetID: e.WidgetID, Kind: ProblemOrphan})
			} else if seen[e.WidgetID] == 2 {
				found = append(found, Problem{Breakpoint: bp, WidgetID: e.WidgetID, Kind: ProblemDup})
			}
		}
		for _, w := range d.Components {
			if seen[w.ID] == 0 {
				found = append(found, Problem{Breakpoint: bp, WidgetID: w.ID, Kind: ProblemMissing})
			}
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].WidgetID < found[j].WidgetID })
		problems = append(problems, found...)
	}
	return problems
}
