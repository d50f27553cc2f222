package formats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/geobuild/pkg/geodata"
)

// L2J format errors.
var (
	ErrInvalidBlockType = errors.New("invalid L2J block type")
	ErrTruncatedL2JData = errors.New("truncated L2J data")
)

// L2J height limits. Packed cells keep the height shifted left by one in
// the upper 12 bits.
const (
	L2JMinHeight = -16384
	L2JMaxHeight = 16376

	// L2JHeightStep is the granularity of packed cell heights.
	L2JHeightStep = 8

	// ZstdExtension marks compressed region files.
	ZstdExtension = ".zst"
)

// PackL2JCell encodes a cell height and NSWE mask. The height is floored
// to a multiple of step and clamped to the representable range.
func PackL2JCell(z int16, nswe uint8, step int) uint16 {
	h := int(z)
	if step > 1 {
		if r := h % step; r != 0 {
			h -= r
			if r < 0 {
				h -= step
			}
		}
	}
	h = max(L2JMinHeight, min(L2JMaxHeight, h))

	raw := uint16(int16(h<<1))&0xfff0 | uint16(nswe&0x0f)
	return swapHeightBytes(raw)
}

// UnpackL2JCell decodes a packed cell.
func UnpackL2JCell(raw uint16) (z int16, nswe uint8) {
	return int16(raw&0xfff0) >> 1, uint8(raw & 0x000f)
}

// swapHeightBytes is the historical height byte transform. It leaves the
// value unchanged and existing files depend on that.
func swapHeightBytes(v uint16) uint16 {
	return (v & 0x00ff) | (v & 0xff00)
}

// L2JSerializer encodes geodata as an L2J region. Blocks are written x-major
// (block x outer, block y inner), and so are the columns of a block.
type L2JSerializer struct {
	Grid       geodata.Grid
	HeightStep int
	Optimizer  *geodata.Optimizer
}

// NewL2JSerializer returns a serializer for grid.
func NewL2JSerializer(grid geodata.Grid) *L2JSerializer {
	return &L2JSerializer{
		Grid:       grid,
		HeightStep: L2JHeightStep,
		Optimizer:  geodata.NewOptimizer(),
	}
}

// Serialize encodes g into w using a fresh export buffer.
func (s *L2JSerializer) Serialize(g *geodata.Geodata, w io.Writer) error {
	return s.SerializeInto(geodata.NewExportBuffer(s.Grid), g, w)
}

// SerializeInto resets buf from g, optimizes it and writes it to w.
func (s *L2JSerializer) SerializeInto(buf *geodata.ExportBuffer, g *geodata.Geodata, w io.Writer) error {
	if err := buf.Reset(g); err != nil {
		return err
	}
	if err := s.Optimizer.Optimize(buf); err != nil {
		return err
	}
	return s.WriteBuffer(buf, w)
}

// WriteBuffer writes an already optimized export buffer.
func (s *L2JSerializer) WriteBuffer(buf *geodata.ExportBuffer, w io.Writer) error {
	grid := buf.Grid()
	bw := bufio.NewWriter(w)
	scratch := make([]byte, 0, 1+grid.BlockCells()*(1+2*grid.MaxLayers))

	for bx := 0; bx < grid.BlocksX; bx++ {
		for by := 0; by < grid.BlocksY; by++ {
			block := buf.Block(bx, by)
			out := append(scratch[:0], byte(block.Type))

			switch block.Type {
			case geodata.BlockSimple:
				height := swapHeightBytes(uint16(block.Height))
				out = binary.LittleEndian.AppendUint16(out, height)

			case geodata.BlockComplex:
				for cx := 0; cx < grid.BlockCellsX; cx++ {
					for cy := 0; cy < grid.BlockCellsY; cy++ {
						c := buf.Cell(bx, by, cx, cy, 0)
						out = binary.LittleEndian.AppendUint16(out, PackL2JCell(c.Z, c.NSWE(), s.HeightStep))
					}
				}

			case geodata.BlockMultilayer:
				for cx := 0; cx < grid.BlockCellsX; cx++ {
					for cy := 0; cy < grid.BlockCellsY; cy++ {
						layers := buf.Layers(bx, by, cx, cy)
						out = append(out, byte(layers))
						for layer := 0; layer < layers; layer++ {
							c := buf.Cell(bx, by, cx, cy, layer)
							out = binary.LittleEndian.AppendUint16(out, PackL2JCell(c.Z, c.NSWE(), s.HeightStep))
						}
					}
				}

			default:
				return fmt.Errorf("%w: %d at block (%d, %d)", ErrInvalidBlockType, block.Type, bx, by)
			}

			if _, err := bw.Write(out); err != nil {
				return fmt.Errorf("writing block (%d, %d): %w", bx, by, err)
			}
		}
	}
	return bw.Flush()
}

// Deserialize decodes an L2J region. Cell coordinates are rebuilt from the
// block and column position; simple blocks expand to one fully connected
// cell per column.
func (s *L2JSerializer) Deserialize(r io.Reader) (*geodata.Geodata, error) {
	grid := s.Grid
	br := bufio.NewReader(r)
	g := &geodata.Geodata{Cells: make([]geodata.Cell, 0, grid.CellsX()*grid.CellsY())}
	var word [2]byte

	readCell := func(typ geodata.BlockType, x, y int) (geodata.Cell, error) {
		if _, err := io.ReadFull(br, word[:]); err != nil {
			return geodata.Cell{}, fmt.Errorf("%w: cell (%d, %d)", ErrTruncatedL2JData, x, y)
		}
		z, nswe := UnpackL2JCell(binary.LittleEndian.Uint16(word[:]))
		c := geodata.Cell{X: int16(x), Y: int16(y), Z: z, Type: typ}
		c.SetNSWE(nswe)
		return c, nil
	}

	for bx := 0; bx < grid.BlocksX; bx++ {
		for by := 0; by < grid.BlocksY; by++ {
			t, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: block (%d, %d) type", ErrTruncatedL2JData, bx, by)
			}
			typ := geodata.BlockType(t)

			switch typ {
			case geodata.BlockSimple:
				if _, err := io.ReadFull(br, word[:]); err != nil {
					return nil, fmt.Errorf("%w: block (%d, %d) height", ErrTruncatedL2JData, bx, by)
				}
				height := int16(swapHeightBytes(binary.LittleEndian.Uint16(word[:])))
				for cx := 0; cx < grid.BlockCellsX; cx++ {
					for cy := 0; cy < grid.BlockCellsY; cy++ {
						g.Cells = append(g.Cells, geodata.Cell{
							X:     int16(bx*grid.BlockCellsX + cx),
							Y:     int16(by*grid.BlockCellsY + cy),
							Z:     height,
							Type:  typ,
							North: true, South: true, West: true, East: true,
						})
					}
				}

			case geodata.BlockComplex:
				for cx := 0; cx < grid.BlockCellsX; cx++ {
					for cy := 0; cy < grid.BlockCellsY; cy++ {
						c, err := readCell(typ, bx*grid.BlockCellsX+cx, by*grid.BlockCellsY+cy)
						if err != nil {
							return nil, err
						}
						g.Cells = append(g.Cells, c)
					}
				}

			case geodata.BlockMultilayer:
				for cx := 0; cx < grid.BlockCellsX; cx++ {
					for cy := 0; cy < grid.BlockCellsY; cy++ {
						x := bx*grid.BlockCellsX + cx
						y := by*grid.BlockCellsY + cy
						layers, err := br.ReadByte()
						if err != nil {
							return nil, fmt.Errorf("%w: cell (%d, %d) layer count", ErrTruncatedL2JData, x, y)
						}
						for i := 0; i < int(layers); i++ {
							c, err := readCell(typ, x, y)
							if err != nil {
								return nil, err
							}
							g.Cells = append(g.Cells, c)
						}
					}
				}

			default:
				return nil, fmt.Errorf("%w: %d at block (%d, %d)", ErrInvalidBlockType, t, bx, by)
			}
		}
	}
	return g, nil
}

// ReadL2JFile reads a region file, decompressing it when the name ends
// with ZstdExtension.
func ReadL2JFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening L2J file: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ZstdExtension) {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading L2J file: %w", err)
		}
		return data, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing L2J file: %w", err)
	}
	return data, nil
}
