package geodata

import "fmt"

// Block is the per-block state of an ExportBuffer.
type Block struct {
	Type BlockType
	// Height is the representative height of a simple block.
	Height int16
}

type packedCell struct {
	z    int16
	nswe uint8
}

// ExportBuffer indexes a flat cell list by block, column and layer.
// Columns are addressed x-major: index = y + x*CellsY. Cells of one column
// are stored contiguously in insertion order.
//
// A buffer may be reused across maps through Reset; it is not safe for
// concurrent use.
type ExportBuffer struct {
	grid Grid

	blocks  []Block
	layers  []uint8
	offsets []int32 // start of each column in cells, len(layers)+1
	cells   []packedCell
}

// NewExportBuffer allocates a buffer for the grid.
func NewExportBuffer(grid Grid) *ExportBuffer {
	columns := grid.CellsX() * grid.CellsY()
	return &ExportBuffer{
		grid:    grid,
		blocks:  make([]Block, grid.BlocksX*grid.BlocksY),
		layers:  make([]uint8, columns),
		offsets: make([]int32, columns+1),
	}
}

// Grid returns the buffer extents.
func (b *ExportBuffer) Grid() Grid { return b.grid }

// Reset clears the buffer and repopulates it from g. A cell's block type is
// copied to its block; the last cell written to a block wins. On error the
// buffer is left empty.
func (b *ExportBuffer) Reset(g *Geodata) error {
	clear(b.blocks)
	clear(b.layers)

	cellsY := b.grid.CellsY()

	// Count layers per column.
	for i := range g.Cells {
		c := &g.Cells[i]
		if int(c.X) < 0 || int(c.Y) < 0 || int(c.X) >= b.grid.CellsX() || int(c.Y) >= cellsY {
			b.empty()
			return fmt.Errorf("%w: (%d, %d)", ErrCellOutOfBounds, c.X, c.Y)
		}
		col := int(c.Y) + int(c.X)*cellsY
		if int(b.layers[col]) >= b.grid.MaxLayers {
			b.empty()
			return fmt.Errorf("%w: (%d, %d) exceeds %d", ErrTooManyLayers, c.X, c.Y, b.grid.MaxLayers)
		}
		b.layers[col]++
	}

	// Prefix sums give each column its slot range.
	var total int32
	for col, n := range b.layers {
		b.offsets[col] = total
		total += int32(n)
	}
	b.offsets[len(b.layers)] = total

	if cap(b.cells) < int(total) {
		b.cells = make([]packedCell, total)
	}
	b.cells = b.cells[:total]

	// Fill, reusing layers as the per-column cursor.
	clear(b.layers)
	for i := range g.Cells {
		c := &g.Cells[i]
		col := int(c.Y) + int(c.X)*cellsY
		slot := b.offsets[col] + int32(b.layers[col])
		b.cells[slot] = packedCell{z: c.Z, nswe: c.NSWE()}
		b.layers[col]++

		bx := int(c.X) / b.grid.BlockCellsX
		by := int(c.Y) / b.grid.BlockCellsY
		b.blocks[by+bx*b.grid.BlocksY].Type = c.Type
	}
	return nil
}

// empty leaves every column without layers.
func (b *ExportBuffer) empty() {
	clear(b.layers)
	clear(b.offsets)
	b.cells = b.cells[:0]
}

// Block returns the block at block coordinates (bx, by).
func (b *ExportBuffer) Block(bx, by int) Block {
	return b.blocks[by+bx*b.grid.BlocksY]
}

// SetBlockType sets the encoding of a block.
func (b *ExportBuffer) SetBlockType(bx, by int, t BlockType) {
	b.blocks[by+bx*b.grid.BlocksY].Type = t
}

// SetBlockHeight sets the representative height of a simple block.
func (b *ExportBuffer) SetBlockHeight(bx, by int, height int16) {
	b.blocks[by+bx*b.grid.BlocksY].Height = height
}

// Layers returns the layer count of column (cx, cy) inside block (bx, by).
func (b *ExportBuffer) Layers(bx, by, cx, cy int) int {
	return int(b.layers[b.column(bx, by, cx, cy)])
}

// Cell returns a layer of column (cx, cy) inside block (bx, by). The cell
// carries the current type of its block.
func (b *ExportBuffer) Cell(bx, by, cx, cy, layer int) Cell {
	col := b.column(bx, by, cx, cy)
	p := b.cells[b.offsets[col]+int32(layer)]

	c := Cell{
		X:    int16(bx*b.grid.BlockCellsX + cx),
		Y:    int16(by*b.grid.BlockCellsY + cy),
		Z:    p.z,
		Type: b.Block(bx, by).Type,
	}
	c.SetNSWE(p.nswe)
	return c
}

func (b *ExportBuffer) column(bx, by, cx, cy int) int {
	x := bx*b.grid.BlockCellsX + cx
	y := by*b.grid.BlockCellsY + cy
	return y + x*b.grid.CellsY()
}
