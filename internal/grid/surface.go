package grid

import (
	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// SurfaceConfig is the configuration the browser grid library is mounted with.
type SurfaceConfig struct {
	Breakpoints     map[model.Breakpoint]int `json:"breakpoints"`
	Cols            map[model.Breakpoint]int `json:"cols"`
	RowHeight       int                      `json:"rowHeight"`
	Margin          [2]int                   `json:"margin"`
	CompactType     string                   `json:"compactType"`
	DraggableHandle string                   `json:"draggableHandle"`
	IsDraggable     bool                     `json:"isDraggable"`
	IsResizable     bool                     `json:"isResizable"`
}

// SurfaceOptions are the surface tunables config may override.
type SurfaceOptions struct {
	RowHeight       int
	Margin          [2]int
	DraggableHandle string
}

// DefaultSurfaceOptions matches the dashboard's stock look.
func DefaultSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{RowHeight: 100, Margin: [2]int{16, 16}, DraggableHandle: ".drag-handle"}
}

// NewSurfaceConfig builds the grid configuration. Breakpoints and columns are fixed.
func NewSurfaceConfig(opts SurfaceOptions) SurfaceConfig {
	def := DefaultSurfaceOptions()
	if opts.RowHeight <= 0 {
		opts.RowHeight = def.RowHeight
	}
	if opts.Margin == [2]int{} {
		opts.Margin = def.Margin
	}
	if opts.DraggableHandle == "" {
		opts.DraggableHandle = def.DraggableHandle
	}
	return SurfaceConfig{
		Breakpoints:     model.ThresholdsByBreakpoint(),
		Cols:            model.ColumnsByBreakpoint(),
		RowHeight:       opts.RowHeight,
		Margin:          opts.Margin,
		CompactType:     "vertical",
		DraggableHandle: opts.DraggableHandle,
		IsDraggable:     true,
		IsResizable:     true,
	}
}
