package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/geobuild/pkg/math"
)

func upTriangle(normal math.Vec3) *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: math.Vec3{X: 0, Y: 0, Z: 0}, Normal: normal},
			{Position: math.Vec3{X: 1, Y: 0, Z: 0}, Normal: normal},
			{Position: math.Vec3{X: 0, Y: 1, Z: 0}, Normal: normal},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func faceNormal(m *Map, tri int) math.Vec3 {
	v := m.Vertices()
	i := m.Indices()
	return math.TriangleNormal(v[i[tri*3]], v[i[tri*3+1]], v[i[tri*3+2]])
}

func TestMap_AddFixesWinding(t *testing.T) {
	tests := []struct {
		name   string
		normal math.Vec3
		wantZ  float32
	}{
		{"agrees with normals", math.Vec3{Z: 1}, 1},
		{"flipped by normals", math.Vec3{Z: -1}, -1},
		{"no normals", math.Vec3{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap("winding", math.Box{})
			require.NoError(t, m.Add(Entity{Mesh: upTriangle(tt.normal), Model: math.Identity()}))
			assert.InDelta(t, tt.wantZ, faceNormal(m, 0).Z, 1e-6)
		})
	}
}

func TestMap_AddInstances(t *testing.T) {
	mesh := upTriangle(math.Vec3{Z: 1})
	mesh.Instances = []math.Mat4{math.Identity(), math.Translate(10, 0, 5)}

	m := NewMap("instances", math.Box{})
	require.NoError(t, m.Add(Entity{Mesh: mesh, Model: math.Translate(0, 100, 0)}))

	require.Len(t, m.Vertices(), 6)
	assert.Equal(t, 2, m.TriangleCount())
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5}, m.Indices())
	assert.Equal(t, math.Vec3{X: 10, Y: 100, Z: 5}, m.Vertices()[3])

	b := m.Bounds()
	assert.Equal(t, math.Vec3{X: 0, Y: 100, Z: 0}, b.Min)
	assert.Equal(t, math.Vec3{X: 11, Y: 101, Z: 5}, b.Max)
}

func TestMap_AddScaledNormals(t *testing.T) {
	// A squashed instance must not flip an upward face.
	mesh := upTriangle(math.Vec3{Z: 1})
	mesh.Instances = []math.Mat4{math.Scale(4, 4, 0.25)}

	m := NewMap("scaled", math.Box{})
	require.NoError(t, m.Add(Entity{Mesh: mesh, Model: math.Identity()}))
	assert.Greater(t, faceNormal(m, 0).Z, float32(0))
}

func TestMap_AddNilMesh(t *testing.T) {
	m := NewMap("nil", math.Box{})
	assert.ErrorIs(t, m.Add(Entity{}), ErrNilMesh)
}

func TestMap_AddTriangles(t *testing.T) {
	bounds := math.Box{Max: math.Vec3{X: 256, Y: 256, Z: 16}}
	m := NewMap("raw", bounds)
	m.AddTriangles(quad(0, 0, 16, 16, 0))
	m.AddTriangles(quad(16, 0, 32, 16, 0))

	assert.Equal(t, "raw", m.Name())
	assert.Equal(t, 4, m.TriangleCount())
	assert.Equal(t, []int32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, m.Indices())
	assert.Equal(t, bounds, m.Bounds(), "explicit bounds win")
}

func TestCell_NSWE(t *testing.T) {
	c := Cell{North: true, East: true}
	assert.Equal(t, North|East, c.NSWE())

	var d Cell
	d.SetNSWE(South | West)
	assert.True(t, d.South)
	assert.True(t, d.West)
	assert.False(t, d.North)
	assert.False(t, d.East)
}

func TestBlockType_String(t *testing.T) {
	assert.Equal(t, "simple", BlockSimple.String())
	assert.Equal(t, "complex", BlockComplex.String())
	assert.Equal(t, "multilayer", BlockMultilayer.String())
	assert.Equal(t, "BlockType(7)", BlockType(7).String())
}
