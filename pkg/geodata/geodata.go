// Package geodata turns collision geometry into L2J-style walkability cells
// and packs them into the block/column/cell layout used for export.
package geodata

import (
	"errors"
	"fmt"

	"github.com/Faultbox/geobuild/pkg/math"
)

// Build and export errors.
var (
	ErrEmptyMesh       = errors.New("map has no triangles")
	ErrInvalidSettings = errors.New("invalid build settings")
	ErrTooManyLayers   = errors.New("too many layers in column")
	ErrEmptyColumn     = errors.New("column has no layers")
	ErrCellOutOfBounds = errors.New("cell outside of grid")
)

// NSWE connectivity bits, as stored in the low nibble of packed cells.
const (
	East  uint8 = 0x1
	West  uint8 = 0x2
	South uint8 = 0x4
	North uint8 = 0x8

	AllDirections = North | South | West | East
)

// BlockType is the encoding of an 8x8 block.
type BlockType uint8

// Block types, in their on-disk values.
const (
	BlockSimple     BlockType = 0
	BlockComplex    BlockType = 1
	BlockMultilayer BlockType = 2
)

// String returns a human-readable block type name.
func (t BlockType) String() string {
	switch t {
	case BlockSimple:
		return "simple"
	case BlockComplex:
		return "complex"
	case BlockMultilayer:
		return "multilayer"
	default:
		return fmt.Sprintf("BlockType(%d)", uint8(t))
	}
}

// Cell is one walkable slab of a grid column.
type Cell struct {
	X, Y int16
	Z    int16 // world units
	Type BlockType

	North, South, West, East bool
}

// NSWE packs the connectivity flags into a bitmask.
func (c Cell) NSWE() uint8 {
	var m uint8
	if c.North {
		m |= North
	}
	if c.South {
		m |= South
	}
	if c.West {
		m |= West
	}
	if c.East {
		m |= East
	}
	return m
}

// SetNSWE sets the connectivity flags from a bitmask.
func (c *Cell) SetNSWE(m uint8) {
	c.North = m&North != 0
	c.South = m&South != 0
	c.West = m&West != 0
	c.East = m&East != 0
}

// Geodata is the unordered cell list produced by a build.
type Geodata struct {
	Cells []Cell
}

// RegionBounds returns bounds that start at the minimum corner of mesh and
// cover exactly the cells of grid, so every column of the region is built.
func RegionBounds(mesh math.Box, grid Grid, cellSize float32) math.Box {
	return math.Box{
		Min: mesh.Min,
		Max: math.Vec3{
			X: mesh.Min.X + float32(grid.CellsX())*cellSize,
			Y: mesh.Min.Y + float32(grid.CellsY())*cellSize,
			Z: mesh.Max.Z,
		},
	}
}
