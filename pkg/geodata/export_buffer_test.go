package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGrid is a 2x1 block region of 4x4 columns.
func smallGrid() Grid {
	return Grid{BlocksX: 2, BlocksY: 1, BlockCellsX: 4, BlockCellsY: 4, MaxLayers: 3}
}

// fullGeodata returns one cell per column with the given height and flags.
func fullGeodata(grid Grid, z int16, nswe uint8) *Geodata {
	g := &Geodata{}
	for x := 0; x < grid.CellsX(); x++ {
		for y := 0; y < grid.CellsY(); y++ {
			c := Cell{X: int16(x), Y: int16(y), Z: z, Type: BlockMultilayer}
			c.SetNSWE(nswe)
			g.Cells = append(g.Cells, c)
		}
	}
	return g
}

func TestExportBuffer_Reset(t *testing.T) {
	grid := smallGrid()
	g := fullGeodata(grid, 16, AllDirections)
	g.Cells = append(g.Cells,
		Cell{X: 5, Y: 2, Z: 64, Type: BlockComplex, North: true},
		Cell{X: 5, Y: 2, Z: 128, Type: BlockComplex, East: true},
	)

	buf := NewExportBuffer(grid)
	require.NoError(t, buf.Reset(g))

	assert.Equal(t, 1, buf.Layers(0, 0, 3, 3))
	assert.Equal(t, 3, buf.Layers(1, 0, 1, 2))

	assert.Equal(t, BlockMultilayer, buf.Block(0, 0).Type)
	assert.Equal(t, BlockComplex, buf.Block(1, 0).Type, "last write wins")

	c := buf.Cell(1, 0, 1, 2, 1)
	assert.Equal(t, Cell{X: 5, Y: 2, Z: 64, Type: BlockComplex, North: true}, c)
	c = buf.Cell(1, 0, 1, 2, 2)
	assert.Equal(t, int16(128), c.Z)
	assert.Equal(t, East, c.NSWE())
}

func TestExportBuffer_LayersMatchSource(t *testing.T) {
	grid := Grid{BlocksX: 1, BlocksY: 1, BlockCellsX: 2, BlockCellsY: 2, MaxLayers: 4}
	g := &Geodata{Cells: []Cell{
		{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 8}, {X: 1, Y: 0, Z: 16},
		{X: 1, Y: 1, Z: 0}, {X: 1, Y: 0, Z: 24}, {X: 0, Y: 0, Z: 0},
	}}

	buf := NewExportBuffer(grid)
	require.NoError(t, buf.Reset(g))

	want := map[[2]int]int{{0, 0}: 1, {1, 0}: 3, {0, 1}: 1, {1, 1}: 1}
	for pos, n := range want {
		assert.Equal(t, n, buf.Layers(0, 0, pos[0], pos[1]), "column %v", pos)
	}
	for layer, z := range []int16{0, 16, 24} {
		assert.Equal(t, z, buf.Cell(0, 0, 1, 0, layer).Z, "insertion order")
	}
}

func TestExportBuffer_MaxLayers(t *testing.T) {
	grid := Grid{BlocksX: 1, BlocksY: 1, BlockCellsX: 1, BlockCellsY: 1, MaxLayers: 3}
	buf := NewExportBuffer(grid)

	g := &Geodata{}
	for i := 0; i < grid.MaxLayers; i++ {
		g.Cells = append(g.Cells, Cell{Z: int16(i * 64)})
	}
	require.NoError(t, buf.Reset(g), "exactly max layers")
	assert.Equal(t, grid.MaxLayers, buf.Layers(0, 0, 0, 0))

	g.Cells = append(g.Cells, Cell{Z: 1024})
	assert.ErrorIs(t, buf.Reset(g), ErrTooManyLayers)
	assert.Zero(t, buf.Layers(0, 0, 0, 0), "failed reset leaves no stale layers")
}

func TestExportBuffer_OutOfBounds(t *testing.T) {
	buf := NewExportBuffer(smallGrid())
	err := buf.Reset(&Geodata{Cells: []Cell{{X: 8, Y: 0}}})
	assert.ErrorIs(t, err, ErrCellOutOfBounds)

	err = buf.Reset(&Geodata{Cells: []Cell{{X: 0, Y: -1}}})
	assert.ErrorIs(t, err, ErrCellOutOfBounds)
}

func TestExportBuffer_FailedResetLeavesEmptyBuffer(t *testing.T) {
	grid := smallGrid()
	buf := NewExportBuffer(grid)
	require.NoError(t, buf.Reset(fullGeodata(grid, 16, AllDirections)))

	// The out of bounds cell comes after cells that were already counted.
	bad := fullGeodata(grid, 0, AllDirections)
	bad.Cells = append(bad.Cells, Cell{X: int16(grid.CellsX()), Y: 0})
	require.ErrorIs(t, buf.Reset(bad), ErrCellOutOfBounds)

	for bx := 0; bx < grid.BlocksX; bx++ {
		for by := 0; by < grid.BlocksY; by++ {
			for cx := 0; cx < grid.BlockCellsX; cx++ {
				for cy := 0; cy < grid.BlockCellsY; cy++ {
					assert.Zero(t, buf.Layers(bx, by, cx, cy))
				}
			}
		}
	}
	assert.ErrorIs(t, NewOptimizer().Optimize(buf), ErrEmptyColumn)

	require.NoError(t, buf.Reset(fullGeodata(grid, 8, AllDirections)))
	assert.Equal(t, int16(8), buf.Cell(1, 0, 3, 3, 0).Z)
}

func TestExportBuffer_ReuseClearsState(t *testing.T) {
	grid := smallGrid()
	buf := NewExportBuffer(grid)

	first := fullGeodata(grid, 0, AllDirections)
	first.Cells = append(first.Cells, Cell{X: 0, Y: 0, Z: 400})
	require.NoError(t, buf.Reset(first))
	require.Equal(t, 2, buf.Layers(0, 0, 0, 0))

	second := fullGeodata(grid, 32, 0)
	require.NoError(t, buf.Reset(second))
	assert.Equal(t, 1, buf.Layers(0, 0, 0, 0))
	assert.Equal(t, int16(32), buf.Cell(0, 0, 0, 0, 0).Z)
	assert.Zero(t, buf.Cell(0, 0, 0, 0, 0).NSWE())
}
