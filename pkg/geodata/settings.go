package geodata

import (
	"fmt"
	"math"

	"github.com/Faultbox/geobuild/pkg/heightfield"
)

// Settings controls voxelization and connectivity. Distances are in world
// units, angles in degrees from the vertical axis.
type Settings struct {
	CellSize   float32 `yaml:"cell_size"`
	CellHeight float32 `yaml:"cell_height"`
	// SampleCellSize enables two-pass generation when it is positive and
	// finer than CellSize.
	SampleCellSize   float32                `yaml:"sample_cell_size"`
	WalkableHeight   float32                `yaml:"walkable_height"`
	WalkableAngle    float32                `yaml:"walkable_angle"`
	WallAngle        float32                `yaml:"wall_angle"`
	MinWalkableClimb float32                `yaml:"min_walkable_climb"`
	MaxWalkableClimb float32                `yaml:"max_walkable_climb"`
	Classifier       heightfield.Classifier `yaml:"classifier"`
	// HeightOffset shifts extracted heights, in voxels.
	HeightOffset int `yaml:"height_offset"`
}

// DefaultSettings returns settings matching the L2J client cell size.
func DefaultSettings() Settings {
	return Settings{
		CellSize:         16,
		CellHeight:       4,
		WalkableHeight:   48,
		WalkableAngle:    45,
		WallAngle:        80,
		MinWalkableClimb: 16,
		MaxWalkableClimb: 24,
		Classifier:       heightfield.ClassifierWall,
		HeightOffset:     7,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value float32
	}{
		{"cell_size", s.CellSize},
		{"cell_height", s.CellHeight},
		{"walkable_height", s.WalkableHeight},
		{"min_walkable_climb", s.MinWalkableClimb},
		{"max_walkable_climb", s.MaxWalkableClimb},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidSettings, p.name, p.value)
		}
	}

	for _, a := range []struct {
		name  string
		value float32
	}{
		{"walkable_angle", s.WalkableAngle},
		{"wall_angle", s.WallAngle},
	} {
		if a.value < 0 || a.value > 90 {
			return fmt.Errorf("%w: %s %g outside [0, 90]", ErrInvalidSettings, a.name, a.value)
		}
	}

	if s.SampleCellSize < 0 || s.SampleCellSize > s.CellSize {
		return fmt.Errorf("%w: sample_cell_size %g must be in [0, cell_size]", ErrInvalidSettings, s.SampleCellSize)
	}
	if !s.Classifier.Valid() {
		return fmt.Errorf("%w: unknown classifier %q", ErrInvalidSettings, s.Classifier)
	}
	return nil
}

// twoPass reports whether triangles are sampled finer than the export grid.
func (s Settings) twoPass() bool {
	return s.SampleCellSize > 0 && s.SampleCellSize < s.CellSize
}

// voxelSettings holds the settings converted to voxel units.
type voxelSettings struct {
	walkableHeight int
	minClimb       int
	maxClimb       int
}

func (s Settings) voxels() voxelSettings {
	ch := float64(s.CellHeight)
	return voxelSettings{
		walkableHeight: int(math.Ceil(float64(s.WalkableHeight) / ch)),
		minClimb:       int(math.Floor(float64(s.MinWalkableClimb) / ch)),
		maxClimb:       int(math.Floor(float64(s.MaxWalkableClimb) / ch)),
	}
}
