package formats

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/geobuild/pkg/geodata"
)

// Layer is one decoded cell of a region column.
type Layer struct {
	Z    int16
	NSWE uint8
}

// regionBlock answers height and NSWE queries for one block.
type regionBlock interface {
	layers(cx, cy int) []Layer
	hasGeoData() bool
	blockType() geodata.BlockType
}

type simpleRegionBlock struct {
	height int16
}

func (b *simpleRegionBlock) layers(_, _ int) []Layer {
	return []Layer{{Z: b.height, NSWE: geodata.AllDirections}}
}

func (b *simpleRegionBlock) hasGeoData() bool { return false }
func (b *simpleRegionBlock) blockType() geodata.BlockType { return geodata.BlockSimple }

type complexRegionBlock struct {
	cellsY int
	data   []uint16
}

func (b *complexRegionBlock) layers(cx, cy int) []Layer {
	z, nswe := UnpackL2JCell(b.data[cx*b.cellsY+cy])
	return []Layer{{Z: z, NSWE: nswe}}
}

func (b *complexRegionBlock) hasGeoData() bool { return true }
func (b *complexRegionBlock) blockType() geodata.BlockType { return geodata.BlockComplex }

type multilayerRegionBlock struct {
	cellsY  int
	data    []byte
	offsets []int // offset of each column's layer count in data
}

func (b *multilayerRegionBlock) layers(cx, cy int) []Layer {
	offset := b.offsets[cx*b.cellsY+cy]
	n := int(b.data[offset])
	offset++

	out := make([]Layer, n)
	for i := range out {
		z, nswe := UnpackL2JCell(binary.LittleEndian.Uint16(b.data[offset:]))
		out[i] = Layer{Z: z, NSWE: nswe}
		offset += 2
	}
	return out
}

func (b *multilayerRegionBlock) hasGeoData() bool { return true }
func (b *multilayerRegionBlock) blockType() geodata.BlockType { return geodata.BlockMultilayer }

// L2JRegion is a read-only view of an encoded region, queried by cell
// coordinates local to the region.
type L2JRegion struct {
	grid   geodata.Grid
	blocks []regionBlock
}

// LoadL2JRegion parses region bytes. data is retained by multilayer blocks.
func LoadL2JRegion(data []byte, grid geodata.Grid) (*L2JRegion, error) {
	r := &L2JRegion{
		grid:   grid,
		blocks: make([]regionBlock, grid.BlocksX*grid.BlocksY),
	}

	offset := 0
	for i := range r.blocks {
		block, consumed, err := parseRegionBlock(data, offset, grid)
		if err != nil {
			return nil, fmt.Errorf("load region block %d: %w", i, err)
		}
		r.blocks[i] = block
		offset += consumed
	}
	return r, nil
}

func parseRegionBlock(data []byte, offset int, grid geodata.Grid) (regionBlock, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("%w: block type at offset %d", ErrTruncatedL2JData, offset)
	}
	cells := grid.BlockCells()
	start := offset
	offset++

	switch t := geodata.BlockType(data[start]); t {
	case geodata.BlockSimple:
		if offset+2 > len(data) {
			return nil, 0, fmt.Errorf("%w: simple block at offset %d", ErrTruncatedL2JData, start)
		}
		height := int16(swapHeightBytes(binary.LittleEndian.Uint16(data[offset:])))
		return &simpleRegionBlock{height: height}, 3, nil

	case geodata.BlockComplex:
		if offset+cells*2 > len(data) {
			return nil, 0, fmt.Errorf("%w: complex block at offset %d", ErrTruncatedL2JData, start)
		}
		b := &complexRegionBlock{cellsY: grid.BlockCellsY, data: make([]uint16, cells)}
		for i := range b.data {
			b.data[i] = binary.LittleEndian.Uint16(data[offset+i*2:])
		}
		return b, 1 + cells*2, nil

	case geodata.BlockMultilayer:
		b := &multilayerRegionBlock{cellsY: grid.BlockCellsY, offsets: make([]int, cells)}
		pos := offset
		for i := 0; i < cells; i++ {
			if pos >= len(data) {
				return nil, 0, fmt.Errorf("%w: multilayer cell %d at offset %d", ErrTruncatedL2JData, i, pos)
			}
			b.offsets[i] = pos - offset
			pos += 1 + int(data[pos])*2
			if pos > len(data) {
				return nil, 0, fmt.Errorf("%w: multilayer cell %d layers", ErrTruncatedL2JData, i)
			}
		}
		b.data = data[offset:pos]
		return b, pos - start, nil

	default:
		return nil, 0, fmt.Errorf("%w: %d at offset %d", ErrInvalidBlockType, t, start)
	}
}

// LoadL2JRegionFile reads and parses a region file.
func LoadL2JRegionFile(path string, grid geodata.Grid) (*L2JRegion, error) {
	data, err := ReadL2JFile(path)
	if err != nil {
		return nil, err
	}
	return LoadL2JRegion(data, grid)
}

// Grid returns the region extents.
func (r *L2JRegion) Grid() geodata.Grid { return r.grid }

func (r *L2JRegion) locate(x, y int) (regionBlock, int, int) {
	bx, cx := x/r.grid.BlockCellsX, x%r.grid.BlockCellsX
	by, cy := y/r.grid.BlockCellsY, y%r.grid.BlockCellsY
	return r.blocks[bx*r.grid.BlocksY+by], cx, cy
}

// Contains reports whether (x, y) lies inside the region.
func (r *L2JRegion) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.grid.CellsX() && y < r.grid.CellsY()
}

// Layers returns the cells of column (x, y), bottom to top as encoded.
func (r *L2JRegion) Layers(x, y int) []Layer {
	b, cx, cy := r.locate(x, y)
	return b.layers(cx, cy)
}

// BlockType returns the encoding of block (bx, by).
func (r *L2JRegion) BlockType(bx, by int) geodata.BlockType {
	return r.blocks[bx*r.grid.BlocksY+by].blockType()
}

// NearestZ returns the layer height closest to z.
func (r *L2JRegion) NearestZ(x, y int, z int) int {
	return int(nearestLayer(r.Layers(x, y), z).Z)
}

// NextHigherZ returns the lowest layer height at or above z, or the highest
// layer when every layer is below z.
func (r *L2JRegion) NextHigherZ(x, y int, z int) int {
	best := math.MaxInt
	highest := math.MinInt
	for _, l := range r.Layers(x, y) {
		lz := int(l.Z)
		highest = max(highest, lz)
		if lz >= z && lz < best {
			best = lz
		}
	}
	if best == math.MaxInt {
		return highest
	}
	return best
}

// NSWE returns the connectivity of the layer closest to z.
func (r *L2JRegion) NSWE(x, y int, z int) uint8 {
	return nearestLayer(r.Layers(x, y), z).NSWE
}

// HasGeoData reports whether (x, y) is stored per cell rather than as a
// flat block.
func (r *L2JRegion) HasGeoData(x, y int) bool {
	b, _, _ := r.locate(x, y)
	return b.hasGeoData()
}

// nearestLayer returns the layer closest to z. An empty column yields a
// fully connected layer at z.
func nearestLayer(layers []Layer, z int) Layer {
	best := Layer{Z: int16(z), NSWE: geodata.AllDirections}
	bestDist := math.MaxInt
	for _, l := range layers {
		d := int(l.Z) - z
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = l
		}
	}
	return best
}
