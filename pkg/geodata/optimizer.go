package geodata

import "fmt"

// SimpleBlockMaxHeightDiff is the largest height range a simple block may
// flatten.
const SimpleBlockMaxHeightDiff = 32

// Optimizer picks the smallest encoding for every block of an ExportBuffer.
type Optimizer struct {
	// MaxHeightDiff is the simple block height range threshold.
	MaxHeightDiff int
}

// NewOptimizer returns an optimizer with the default threshold.
func NewOptimizer() *Optimizer {
	return &Optimizer{MaxHeightDiff: SimpleBlockMaxHeightDiff}
}

// Optimize classifies every block as multilayer, simple or complex.
// It depends only on the cells, so running it again changes nothing.
func (o *Optimizer) Optimize(buf *ExportBuffer) error {
	grid := buf.Grid()
	for bx := 0; bx < grid.BlocksX; bx++ {
		for by := 0; by < grid.BlocksY; by++ {
			multilayer, err := o.isMultilayer(buf, bx, by)
			if err != nil {
				return err
			}
			if multilayer {
				buf.SetBlockType(bx, by, BlockMultilayer)
				continue
			}

			if height, ok := o.simpleHeight(buf, bx, by); ok {
				buf.SetBlockType(bx, by, BlockSimple)
				buf.SetBlockHeight(bx, by, height)
			} else {
				buf.SetBlockType(bx, by, BlockComplex)
			}
		}
	}
	return nil
}

func (o *Optimizer) isMultilayer(buf *ExportBuffer, bx, by int) (bool, error) {
	grid := buf.Grid()
	multilayer := false
	for cx := 0; cx < grid.BlockCellsX; cx++ {
		for cy := 0; cy < grid.BlockCellsY; cy++ {
			layers := buf.Layers(bx, by, cx, cy)
			if layers == 0 {
				return false, fmt.Errorf("%w: (%d, %d)", ErrEmptyColumn,
					bx*grid.BlockCellsX+cx, by*grid.BlockCellsY+cy)
			}
			if layers > 1 {
				multilayer = true
			}
		}
	}
	return multilayer, nil
}

// simpleHeight returns the block height if every cell is fully connected
// and the height range fits the threshold.
func (o *Optimizer) simpleHeight(buf *ExportBuffer, bx, by int) (int16, bool) {
	grid := buf.Grid()
	minZ, maxZ := 0xffff, -0xffff
	for cx := 0; cx < grid.BlockCellsX; cx++ {
		for cy := 0; cy < grid.BlockCellsY; cy++ {
			c := buf.Cell(bx, by, cx, cy, 0)
			if c.NSWE() != AllDirections {
				return 0, false
			}
			minZ = min(minZ, int(c.Z))
			maxZ = max(maxZ, int(c.Z))
			if maxZ-minZ > o.MaxHeightDiff {
				return 0, false
			}
		}
	}
	return int16(minZ + (maxZ-minZ)/2), true
}
