package geodata

import "fmt"

// Grid holds the fixed extents of an exported region.
type Grid struct {
	BlocksX     int `yaml:"blocks_x"`
	BlocksY     int `yaml:"blocks_y"`
	BlockCellsX int `yaml:"block_cells_x"`
	BlockCellsY int `yaml:"block_cells_y"`
	MaxLayers   int `yaml:"max_layers"`
}

// DefaultGrid returns the L2J region layout: 256x256 blocks of 8x8 cells.
func DefaultGrid() Grid {
	return Grid{
		BlocksX:     256,
		BlocksY:     256,
		BlockCellsX: 8,
		BlockCellsY: 8,
		MaxLayers:   125,
	}
}

// CellsX returns the region width in cells.
func (g Grid) CellsX() int { return g.BlocksX * g.BlockCellsX }

// CellsY returns the region height in cells.
func (g Grid) CellsY() int { return g.BlocksY * g.BlockCellsY }

// BlockCells returns the number of columns in one block.
func (g Grid) BlockCells() int { return g.BlockCellsX * g.BlockCellsY }

// Validate checks that every extent is positive.
func (g Grid) Validate() error {
	if g.BlocksX <= 0 || g.BlocksY <= 0 || g.BlockCellsX <= 0 || g.BlockCellsY <= 0 {
		return fmt.Errorf("%w: grid extents must be positive", ErrInvalidSettings)
	}
	if g.MaxLayers <= 0 || g.MaxLayers > 255 {
		return fmt.Errorf("%w: max layers %d outside 1..255", ErrInvalidSettings, g.MaxLayers)
	}
	return nil
}
