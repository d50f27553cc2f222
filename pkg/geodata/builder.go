package geodata

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/geobuild/pkg/heightfield"
)

// PlaceholderHeight is the height of the filler cell written for columns
// that have no walkable span.
const PlaceholderHeight = -16384

// BuildStats summarizes one build.
type BuildStats struct {
	Width      int
	Height     int
	Triangles  int
	Spans      int
	Cells      int
	BlackHoles int
}

// Builder voxelizes maps into geodata.
type Builder struct {
	log *zap.Logger
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log}
}

// Build runs the full pipeline: classification, rasterization, optional
// merge, clearance filtering, NSWE calculation and cell extraction.
func (b *Builder) Build(m *Map, s Settings) (*Geodata, BuildStats, error) {
	var stats BuildStats

	if err := s.Validate(); err != nil {
		return nil, stats, err
	}
	if len(m.Vertices()) == 0 || m.TriangleCount() == 0 {
		return nil, stats, fmt.Errorf("%w: %q", ErrEmptyMesh, m.Name())
	}

	bounds := m.Bounds()
	width, height := heightfield.CalcGridSize(bounds, s.CellSize)
	hf, err := heightfield.New(width, height, bounds, s.CellSize, s.CellHeight)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %q: %v", ErrEmptyMesh, m.Name(), err)
	}

	verts := m.Vertices()
	tris := m.Indices()
	areas := make([]heightfield.Area, m.TriangleCount())
	heightfield.ClassifyTriangles(s.Classifier, s.WalkableAngle, s.WallAngle, verts, tris, areas)

	vox := s.voxels()

	if s.twoPass() {
		sw, sh := heightfield.CalcGridSize(bounds, s.SampleCellSize)
		sample, err := heightfield.New(sw, sh, bounds, s.SampleCellSize, s.CellHeight)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %q: %v", ErrEmptyMesh, m.Name(), err)
		}
		sample.RasterizeTriangles(verts, tris, areas, vox.minClimb)
		if err := heightfield.Merge(sample, hf, vox.minClimb); err != nil {
			return nil, stats, err
		}
		b.log.Debug("merged sample heightfield",
			zap.Int("sample_width", sw),
			zap.Int("sample_height", sh),
			zap.Int("sample_spans", sample.SpanCount()))
	} else {
		hf.RasterizeTriangles(verts, tris, areas, vox.minClimb)
	}

	hf.FilterLowClearance(vox.walkableHeight)
	hf.CalculateNSWE(vox.walkableHeight, vox.minClimb, vox.maxClimb)

	g, blackHoles := b.extract(hf, s)

	stats = BuildStats{
		Width:      width,
		Height:     height,
		Triangles:  m.TriangleCount(),
		Spans:      hf.SpanCount(),
		Cells:      len(g.Cells),
		BlackHoles: blackHoles,
	}

	if blackHoles > 0 {
		b.log.Warn("columns without walkable cells",
			zap.String("map", m.Name()),
			zap.Int("count", blackHoles))
	}
	b.log.Info("geodata built",
		zap.String("map", m.Name()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("spans", stats.Spans),
		zap.Int("cells", stats.Cells))

	return g, stats, nil
}

// extract turns connected spans into cells and fills empty columns with a
// placeholder. It returns the number of placeholders written.
func (b *Builder) extract(hf *heightfield.Heightfield, s Settings) (*Geodata, int) {
	g := &Geodata{Cells: make([]Cell, 0, hf.Width*hf.Height)}
	depth := hf.Depth()
	blackHoles := 0

	for y := 0; y < hf.Height; y++ {
		for x := 0; x < hf.Width; x++ {
			emitted := 0
			for _, span := range hf.Spans(x, y) {
				if span.Area == heightfield.AreaNone || span.NSWE == 0 {
					continue
				}
				z := float32(span.Max-depth/2+s.HeightOffset) * s.CellHeight
				c := Cell{
					X:    int16(x),
					Y:    int16(y),
					Z:    clampHeight(z),
					Type: BlockMultilayer,
				}
				c.SetNSWE(span.NSWE)
				g.Cells = append(g.Cells, c)
				emitted++
			}

			if emitted == 0 {
				b.log.Debug("black hole", zap.Int("x", x), zap.Int("y", y))
				g.Cells = append(g.Cells, Cell{
					X:    int16(x),
					Y:    int16(y),
					Z:    PlaceholderHeight,
					Type: BlockMultilayer,
				})
				blackHoles++
			}
		}
	}
	return g, blackHoles
}

func clampHeight(z float32) int16 {
	if z <= math.MinInt16 {
		return math.MinInt16
	}
	if z >= math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(z)
}
