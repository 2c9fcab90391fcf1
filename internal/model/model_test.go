package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointForWidth(t *testing.T) {
	cases := []struct {
		width int
		want  Breakpoint
	}{
		{1920, BreakpointLG},
		{1200, BreakpointLG},
		{1199, BreakpointMD},
		{996, BreakpointMD},
		{800, BreakpointSM},
		{480, BreakpointXS},
		{479, BreakpointXXS},
		{0, BreakpointXXS},
		{-5, BreakpointXXS},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BreakpointForWidth(tc.width), "width %d", tc.width)
	}
}

func TestParseBreakpoint(t *testing.T) {
	bp, err := ParseBreakpoint("sm")
	require.NoError(t, err)
	assert.Equal(t, 6, bp.Columns())
	assert.Equal(t, 768, bp.Threshold())

	_, err = ParseBreakpoint("xl")
	assert.ErrorIs(t, err, ErrUnknownBreakpoint)
	assert.Panics(t, func() { Breakpoint("xl").Columns() })
}

func TestBreakpointsReturnsCopy(t *testing.T) {
	bps := Breakpoints()
	assert.Equal(t, []Breakpoint{BreakpointLG, BreakpointMD, BreakpointSM, BreakpointXS, BreakpointXXS}, bps)
	bps[0] = "xl"
	assert.Equal(t, BreakpointLG, Breakpoints()[0])
}

func TestPropsNormalize(t *testing.T) {
	p := Props{"symbols": []string{"BTC", "ETH"}, "raw": []any{"a", 1}, "limit": 10.0}
	got := p.Normalize()
	assert.Equal(t, Props{"symbols": "BTC,ETH", "raw": "a,1", "limit": 10.0}, got)
	assert.Equal(t, []string{"BTC", "ETH"}, p["symbols"], "input untouched")
	assert.Equal(t, Props{}, Props(nil).Normalize())
}

func TestDashboardWireShape(t *testing.T) {
	id := int64(3)
	d := Dashboard{
		ID:         &id,
		Name:       "Desk",
		Components: []WidgetInstance{{ID: "LineChart-1", Type: "LineChart", Props: Props{"symbol": "BTC"}}},
		Layouts:    Layouts{BreakpointLG: {{WidgetID: "LineChart-1", W: 6, H: 3.5, MinW: 4, MinH: 2.5}}},
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 3, "name": "Desk",
		"components": [{"id": "LineChart-1", "type": "LineChart", "props": {"symbol": "BTC"}}],
		"layouts": {"lg": [{"i": "LineChart-1", "x": 0, "y": 0, "w": 6, "h": 3.5, "minW": 4, "minH": 2.5}]}
	}`, string(raw))
}

func TestCloneIsDeep(t *testing.T) {
	id := int64(1)
	d := Dashboard{
		ID:         &id,
		Components: []WidgetInstance{{ID: "a", Type: "default", Props: Props{"k": "v"}}},
		Layouts:    Layouts{BreakpointLG: {{WidgetID: "a", X: 1}}},
	}
	c := d.Clone()
	*c.ID = 9
	c.Components[0].Props["k"] = "changed"
	c.Layouts[BreakpointLG][0].X = 5

	assert.Equal(t, int64(1), *d.ID)
	assert.Equal(t, "v", d.Components[0].Props["k"])
	assert.Equal(t, 1, d.Layouts[BreakpointLG][0].X)
}

func TestCheckIntegrity(t *testing.T) {
	d := Dashboard{
		Components: []WidgetInstance{{ID: "a"}, {ID: "b"}},
		Layouts: Layouts{
			BreakpointLG: {{WidgetID: "a"}, {WidgetID: "b"}, {WidgetID: "a"}, {WidgetID: "z"}},
		},
	}
	problems := d.CheckIntegrity()
	require.NotEmpty(t, problems)
	assert.Equal(t, []Problem{
		{Breakpoint: BreakpointLG, WidgetID: "a", Kind: ProblemDup},
		{Breakpoint: BreakpointLG, WidgetID: "z", Kind: ProblemOrphan},
	}, problems[:2])
	assert.Equal(t, Problem{Breakpoint: BreakpointMD, WidgetID: "a", Kind: ProblemMissing}, problems[2])
	assert.Len(t, problems, 2+2*4)
	assert.Equal(t, `lg orphan entry for "z"`, problems[1].String())
}

func TestLayoutsIndexAndEntry(t *testing.T) {
	l := Layouts{BreakpointSM: {{WidgetID: "a", X: 1}, {WidgetID: "b", X: 2}}}
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, l.Index(BreakpointSM))
	e, ok := l.Entry(BreakpointSM, "b")
	require.True(t, ok)
	assert.Equal(t, 2, e.X)
	_, ok = l.Entry(BreakpointLG, "b")
	assert.False(t, ok)
}
