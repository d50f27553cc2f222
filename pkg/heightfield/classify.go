package heightfield

import (
	gomath "math"

	"github.com/Faultbox/geobuild/pkg/math"
)

// Classifier selects the triangle classification policy.
type Classifier string

// Classifier policies.
const (
	// ClassifierWall uses two thresholds: faces steeper than the wall
	// angle become walls, steeper than the walkable angle become steep.
	ClassifierWall Classifier = "wall"
	// ClassifierSlope uses only the walkable angle. Downward faces are
	// left unwalkable and no walls are produced.
	ClassifierSlope Classifier = "slope"
)

// Valid reports whether c names a known policy.
func (c Classifier) Valid() bool {
	return c == ClassifierWall || c == ClassifierSlope
}

// ClassifyTriangles tags every triangle of the mesh. Angles are in degrees,
// measured between the face normal and the vertical axis. tris holds three
// vertex indices per triangle; areas receives one entry per triangle.
func ClassifyTriangles(policy Classifier, walkableAngle, wallAngle float32,
	verts []math.Vec3, tris []int32, areas []Area) {

	walkableLimit := float32(gomath.Cos(float64(walkableAngle) / 180.0 * gomath.Pi))
	wallLimit := float32(gomath.Cos(float64(wallAngle) / 180.0 * gomath.Pi))

	for i := 0; i < len(tris)/3; i++ {
		up := math.TriangleNormal(
			verts[tris[i*3+0]],
			verts[tris[i*3+1]],
			verts[tris[i*3+2]],
		).Z

		if policy == ClassifierSlope {
			switch {
			case up < 0:
				areas[i] = AreaNone
			case up <= walkableLimit:
				areas[i] = AreaSteep
			default:
				areas[i] = AreaFlat
			}
			continue
		}

		switch {
		case up < wallLimit:
			areas[i] = AreaWall
		case up < walkableLimit:
			areas[i] = AreaSteep
		default:
			areas[i] = AreaFlat
		}
	}
}
