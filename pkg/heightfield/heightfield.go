// Package heightfield voxelizes triangle soups into per-column span lists
// and derives the per-span NSWE connectivity used by geodata export.
//
// The rasterizer follows the Recast layout: a 2D grid of columns, each
// holding solid spans ordered bottom to top. The walkable open space of a
// span is [span.Max, next.Min), or [span.Max, MaxHeight) for the topmost.
package heightfield

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/geobuild/pkg/math"
)

const (
	// MaxHeight is the open-space top used above the highest span.
	MaxHeight = 0xffff
	// MaxSpanHeight is the highest voxel index a span may reach.
	MaxSpanHeight = MaxHeight - 1
)

// Heightfield errors.
var (
	ErrEmptyGrid          = errors.New("heightfield has zero width or height")
	ErrResolutionMismatch = errors.New("source heightfield is coarser than destination")
)

// Area classifies the surface a span was rasterized from.
// Higher values are more restrictive.
type Area uint8

// Area constants.
const (
	AreaNone  Area = 0 // not walkable
	AreaFlat  Area = 1
	AreaSteep Area = 2
	AreaWall  Area = 3
)

// String returns a human-readable area name.
func (a Area) String() string {
	switch a {
	case AreaNone:
		return "None"
	case AreaFlat:
		return "Flat"
	case AreaSteep:
		return "Steep"
	case AreaWall:
		return "Wall"
	default:
		return "Unknown"
	}
}

// Span is a solid vertical run of voxels [Min, Max) within one column.
type Span struct {
	Min int
	Max int
	// MergedMax is the highest solid top folded into this span. It only
	// exceeds Max when a wall was merged below the standing surface.
	MergedMax int
	Area      Area
	// NSWE is the connectivity mask, valid after CalculateNSWE.
	NSWE uint8
}

// Heightfield is a grid of span columns.
type Heightfield struct {
	Width      int
	Height     int
	Bounds     math.Box // world space, Z-up
	CellSize   float32
	CellHeight float32

	columns [][]Span
}

// CalcGridSize returns the number of columns covering bounds.
func CalcGridSize(bounds math.Box, cellSize float32) (width, height int) {
	size := bounds.Size()
	width = int(gomath.Ceil(float64(size.X / cellSize)))
	height = int(gomath.Ceil(float64(size.Y / cellSize)))
	return width, height
}

// New creates an empty heightfield.
func New(width, height int, bounds math.Box, cellSize, cellHeight float32) (*Heightfield, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	return &Heightfield{
		Width:      width,
		Height:     height,
		Bounds:     bounds,
		CellSize:   cellSize,
		CellHeight: cellHeight,
		columns:    make([][]Span, width*height),
	}, nil
}

// Spans returns the spans of column (x, y), bottom to top.
// The slice aliases heightfield storage.
func (hf *Heightfield) Spans(x, y int) []Span {
	return hf.columns[x+y*hf.Width]
}

// SpanCount returns the total number of spans.
func (hf *Heightfield) SpanCount() int {
	n := 0
	for _, col := range hf.columns {
		n += len(col)
	}
	return n
}

// Depth returns the vertical extent of the bounds in voxels.
func (hf *Heightfield) Depth() int {
	return int((hf.Bounds.Max.Z - hf.Bounds.Min.Z) / hf.CellHeight)
}

// openTop returns the top of the open space above col[i].
func openTop(col []Span, i int) int {
	if i+1 < len(col) {
		return col[i+1].Min
	}
	return MaxHeight
}
