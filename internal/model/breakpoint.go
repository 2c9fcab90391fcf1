package model

import (
	"errors"
	"fmt"
)

// Breakpoint is a named screen-width tier of the dashboard grid.
type Breakpoint string

const (
	BreakpointLG  Breakpoint = "lg"
	BreakpointMD  Breakpoint = "md"
	BreakpointSM  Breakpoint = "sm"
	BreakpointXS  Breakpoint = "xs"
	BreakpointXXS Breakpoint = "xxs"
)

// BaseBreakpoint is the largest tier; base sizes and initial packing live here.
const BaseBreakpoint = BreakpointLG

// ErrUnknownBreakpoint is returned when a breakpoint name is not one of the five tiers.
var ErrUnknownBreakpoint = errors.New("unknown breakpoint")

type tier struct {
	threshold int
	columns   int
}

var tiers = map[Breakpoint]tier{
	BreakpointLG:  {threshold: 1200, columns: 12},
	BreakpointMD:  {threshold: 996, columns: 10},
	BreakpointSM:  {threshold: 768, columns: 6},
	BreakpointXS:  {threshold: 480, columns: 4},
	BreakpointXXS: {threshold: 0, columns: 1},
}

var ordered = []Breakpoint{BreakpointLG, BreakpointMD, BreakpointSM, BreakpointXS, BreakpointXXS}

// Breakpoints returns the five tiers, largest first.
func Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(ordered))
	copy(out, ordered)
	return out
}

// ParseBreakpoint validates a breakpoint name.
func ParseBreakpoint(s string) (Breakpoint, error) {
	bp := Breakpoint(s)
	if _, ok := tiers[bp]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBreakpoint, s)
	}
	return bp, nil
}

// Valid reports whether bp is one of the known tiers.
func (bp Breakpoint) Valid() bool {
	_, ok := tiers[bp]
	return ok
}

// Columns returns the grid column count of bp. It panics on an unknown tier.
func (bp Breakpoint) Columns() int {
	return bp.mustTier().columns
}

// Threshold returns the minimum viewport width in pixels for bp.
func (bp Breakpoint) Threshold() int {
	return bp.mustTier().threshold
}

// SingleColumn reports whether every widget is forced to full width on bp.
func (bp Breakpoint) SingleColumn() bool {
	return bp == BreakpointXS || bp == BreakpointXXS
}

func (bp Breakpoint) mustTier() tier {
	t, ok := tiers[bp]
	if !ok {
		panic(fmt.Sprintf("model: unknown breakpoint %q", string(bp)))
	}
	return t
}

// BreakpointForWidth picks the largest tier whose threshold fits width.
func BreakpointForWidth(width int) Breakpoint {
	for _, bp := range ordered {
		if width >= tiers[bp].threshold {
			return bp
		}
	}
	return BreakpointXXS
}

// ColumnsByBreakpoint returns the column table keyed by tier name.
func ColumnsByBreakpoint() map[Breakpoint]int {
	out := make(map[Breakpoint]int, len(tiers))
	for bp, t := range tiers {
		out[bp] = t.columns
	}
	return out
}

// ThresholdsByBreakpoint returns the pixel threshold table keyed by tier name.
func ThresholdsByBreakpoint() map[Breakpoint]int {
	out := make(map[Breakpoint]int, len(tiers))
	for bp, t := range tiers {
		out[bp] = t.threshold
	}
	return out
}
