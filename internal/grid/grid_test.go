package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

var allPresets = []widget.Preset{widget.PresetDefault, widget.PresetChart, widget.PresetFeed, widget.PresetCompactTable}

func TestSizeForRespectsMinimums(t *testing.T) {
	for _, p := range allPresets {
		for _, bp := range model.Breakpoints() {
			s := SizeFor(p, bp)
			assert.GreaterOrEqual(t, s.W, s.MinW, "%s/%s width", p, bp)
			assert.GreaterOrEqual(t, s.H, s.MinH, "%s/%s height", p, bp)
			assert.LessOrEqual(t, s.W, float64(bp.Columns()), "%s/%s fits columns", p, bp)
		}
	}
}

func TestSizeForSingleColumnTiersAreFullWidth(t *testing.T) {
	for _, p := range allPresets {
		for _, bp := range []model.Breakpoint{model.BreakpointXS, model.BreakpointXXS} {
			s := SizeFor(p, bp)
			assert.Equal(t, float64(bp.Columns()), s.W, "%s/%s", p, bp)
			assert.Equal(t, float64(bp.Columns()), s.MinW, "%s/%s", p, bp)
		}
	}
}

func TestSizeForTable(t *testing.T) {
	cases := []struct {
		preset widget.Preset
		bp     model.Breakpoint
		want   Size
	}{
		{widget.PresetChart, model.BreakpointLG, Size{W: 6, H: 6, MinW: 4, MinH: 4}},
		{widget.PresetChart, model.BreakpointMD, Size{W: 6, H: 6, MinW: 4, MinH: 4}},
		{widget.PresetChart, model.BreakpointSM, Size{W: 4, H: 6, MinW: 4, MinH: 4}},
		{widget.PresetChart, model.BreakpointXS, Size{W: 4, H: 6, MinW: 4, MinH: 4}},
		{widget.PresetChart, model.BreakpointXXS, Size{W: 1, H: 6, MinW: 1, MinH: 4}},
		{widget.PresetFeed, model.BreakpointSM, Size{W: 3, H: 8, MinW: 3, MinH: 6}},
		{widget.PresetCompactTable, model.BreakpointLG, Size{W: 6, H: 3.5, MinW: 4, MinH: 2.5}},
		{widget.PresetCompactTable, model.BreakpointSM, Size{W: 4, H: 4, MinW: 4, MinH: 2.5}},
		{widget.PresetCompactTable, model.BreakpointXS, Size{W: 4, H: 5, MinW: 4, MinH: 2.5}},
		{widget.PresetDefault, model.BreakpointSM, Size{W: 3, H: 4, MinW: 3, MinH: 3}},
		{widget.PresetDefault, model.BreakpointXXS, Size{W: 1, H: 4, MinW: 1, MinH: 3}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SizeFor(tc.preset, tc.bp), "%s/%s", tc.preset, tc.bp)
	}
}

func TestSizeForUnknownBreakpointPanics(t *testing.T) {
	assert.Panics(t, func() { SizeFor(widget.PresetChart, model.Breakpoint("xl")) })
}

func newPolicy(t *testing.T) *Policy {
	t.Helper()
	return NewPolicy(widget.MustBuiltin())
}

func TestProjectClampsAndIsIdempotent(t *testing.T) {
	p := newPolicy(t)
	types := map[string]string{"c": "CCXTChart", "d": widget.DefaultType, "f": "TwitterFeed"}
	base := []model.LayoutEntry{
		{WidgetID: "c", X: 6, Y: 0, W: 6, H: 6, MinW: 4, MinH: 4},
		{WidgetID: "d", X: 8, Y: 6, W: 4, H: 4, MinW: 3, MinH: 3},
		{WidgetID: "f", X: 1, Y: 12, W: 6, H: 8, MinW: 2, MinH: 6},
	}

	for _, bp := range model.Breakpoints() {
		once := p.Project(base, types, bp)
		twice := p.Project(once, types, bp)
		require.Equal(t, once, twice, "idempotent on %s", bp)

		for i, e := range once {
			assert.Equal(t, base[i].Y, e.Y, "y carried through")
			assert.LessOrEqual(t, float64(e.X)+e.W, float64(bp.Columns()), "%s fits %s", e.WidgetID, bp)
			if bp.SingleColumn() {
				assert.Zero(t, e.X)
			}
		}
	}

	sm := p.Project(base, types, model.BreakpointSM)
	assert.Equal(t, 2, sm[0].X, "chart clamped to 6-4")
	assert.Equal(t, 3, sm[1].X, "default clamped to 6-3")
	assert.Equal(t, 1, sm[2].X, "feed keeps its column")

	md := p.Project(base, types, model.BreakpointMD)
	assert.Equal(t, 4, md[0].X)
	assert.Equal(t, 6, md[1].X)
}

func TestProjectUnknownTypeUsesDefaultPreset(t *testing.T) {
	p := newPolicy(t)
	got := p.Project([]model.LayoutEntry{{WidgetID: "x", X: 3}}, nil, model.BreakpointLG)
	require.Len(t, got, 1)
	assert.Equal(t, 4.0, got[0].W)
	assert.Equal(t, 3, got[0].X)
}

func TestChartScenarioAcrossTiers(t *testing.T) {
	p := newPolicy(t)
	lg := p.Place("CCXTChart-1", "CCXTChart", 0, 0, model.BreakpointLG)
	assert.Equal(t, model.LayoutEntry{WidgetID: "CCXTChart-1", W: 6, H: 6, MinW: 4, MinH: 4}, lg)

	xxs := p.ProjectEntry(lg, "CCXTChart", model.BreakpointXXS)
	assert.Equal(t, 1.0, xxs.W)
	assert.Equal(t, 6.0, xxs.H)
	assert.Equal(t, 1.0, xxs.MinW)
}

func TestInitialPacking(t *testing.T) {
	for i, want := range [][2]int{{0, 0}, {4, 0}, {8, 0}, {0, 4}, {4, 4}, {8, 4}, {0, 8}} {
		x, y := InitialPacking(i)
		assert.Equal(t, want, [2]int{x, y}, "index %d", i)
	}
}

func TestRepairFillsMissingTier(t *testing.T) {
	p := newPolicy(t)
	d := model.Dashboard{
		Name:       "t",
		Components: []model.WidgetInstance{{ID: "default-1", Type: widget.DefaultType}},
		Layouts: model.Layouts{
			model.BreakpointLG: {{WidgetID: "default-1", X: 8, Y: 2, W: 4, H: 4, MinW: 3, MinH: 3}},
			model.BreakpointSM: {},
		},
	}

	fixed, n := p.Repair(d)
	assert.Equal(t, 4, n, "md, sm, xs, xxs synthesized")
	assert.Empty(t, fixed.CheckIntegrity())

	require.Len(t, fixed.Layouts[model.BreakpointSM], 1)
	want := p.ProjectEntry(d.Layouts[model.BreakpointLG][0], widget.DefaultType, model.BreakpointSM)
	assert.Equal(t, want, fixed.Layouts[model.BreakpointSM][0])
	assert.Equal(t, 3.0, want.W)
	assert.Equal(t, 4.0, want.H)
	assert.Equal(t, 3, want.X)

	assert.Equal(t, d.Layouts[model.BreakpointLG][0], fixed.Layouts[model.BreakpointLG][0], "stored base entry kept")
}

func TestRepairDropsOrphansAndPacksMissingBase(t *testing.T) {
	p := newPolicy(t)
	d := model.Dashboard{
		Components: []model.WidgetInstance{
			{ID: "a", Type: widget.DefaultType},
			{ID: "b", Type: "CCXTChart"},
			{ID: "a", Type: widget.DefaultType},
		},
		Layouts: model.Layouts{
			model.BreakpointLG: {{WidgetID: "ghost", W: 2, H: 2}},
		},
	}

	fixed, n := p.Repair(d)
	require.Len(t, fixed.Components, 2)
	assert.Empty(t, fixed.CheckIntegrity())
	// 1 duplicate widget + 1 orphan + 2 widgets x 5 tiers
	assert.Equal(t, 12, n)

	lg := fixed.Layouts[model.BreakpointLG]
	assert.Equal(t, 0, lg[0].X)
	assert.Equal(t, 4, lg[1].X, "second widget packed at column 4")
	assert.Equal(t, 6.0, lg[1].W)
}
