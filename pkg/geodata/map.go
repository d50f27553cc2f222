package geodata

import (
	"errors"

	"github.com/Faultbox/geobuild/pkg/math"
)

// ErrNilMesh is returned when adding an entity without geometry.
var ErrNilMesh = errors.New("entity has no mesh")

// Vertex is a mesh vertex in model space.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
}

// Mesh is an indexed triangle list placed once per instance matrix.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Instances []math.Mat4
}

// Entity places a mesh in the world.
type Entity struct {
	Mesh  *Mesh
	Model math.Mat4
}

// Map accumulates world-space collision triangles. World space is Z-up.
type Map struct {
	name     string
	bounds   math.Box
	vertices []math.Vec3
	indices  []int32
}

// NewMap creates an empty map. An empty bounds box is replaced by the
// bounding box of the geometry.
func NewMap(name string, bounds math.Box) *Map {
	return &Map{name: name, bounds: bounds}
}

// Add transforms every instance of the entity's mesh into world space.
// Triangle winding is fixed so the face normal agrees with the averaged
// vertex normals; meshes without normals keep their winding.
func (m *Map) Add(e Entity) error {
	if e.Mesh == nil {
		return ErrNilMesh
	}

	instances := e.Mesh.Instances
	if len(instances) == 0 {
		instances = []math.Mat4{math.Identity()}
	}

	normals := make([]math.Vec3, len(e.Mesh.Vertices))
	for _, instance := range instances {
		base := int32(len(m.vertices))
		model := e.Model.Mul(instance)
		normalMatrix := model.NormalMatrix()

		for i, v := range e.Mesh.Vertices {
			m.vertices = append(m.vertices, model.TransformVec3(v.Position))
			normals[i] = normalMatrix.TransformDirection(v.Normal).Normalize()
		}

		idx := e.Mesh.Indices
		for i := 0; i+2 < len(idx); i += 3 {
			i0, i1, i2 := idx[i], idx[i+1], idx[i+2]

			average := normals[i0].Add(normals[i1]).Add(normals[i2]).Normalize()
			face := math.TriangleNormal(
				m.vertices[base+int32(i0)],
				m.vertices[base+int32(i1)],
				m.vertices[base+int32(i2)],
			)

			if average.Dot(face) < 0 {
				i0, i2 = i2, i0
			}
			m.indices = append(m.indices, base+int32(i0), base+int32(i1), base+int32(i2))
		}
	}
	return nil
}

// AddTriangles appends world-space triangles as they are.
func (m *Map) AddTriangles(vertices []math.Vec3, indices []int32) {
	base := int32(len(m.vertices))
	m.vertices = append(m.vertices, vertices...)
	for _, i := range indices {
		m.indices = append(m.indices, base+i)
	}
}

// Name returns the map name.
func (m *Map) Name() string { return m.name }

// Vertices returns the world-space vertices.
func (m *Map) Vertices() []math.Vec3 { return m.vertices }

// Indices returns three vertex indices per triangle.
func (m *Map) Indices() []int32 { return m.indices }

// TriangleCount returns the number of triangles.
func (m *Map) TriangleCount() int { return len(m.indices) / 3 }

// Bounds returns the build bounds.
func (m *Map) Bounds() math.Box {
	if m.bounds.IsEmpty() {
		return math.BoxOf(m.vertices)
	}
	return m.bounds
}
