package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/geobuild/pkg/geodata"
	"github.com/Faultbox/geobuild/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// ParseOBJ reads positions and faces of a Wavefront OBJ stream into a mesh.
// Polygons are triangulated as fans; texture coordinates, normals, groups
// and materials are ignored.
func ParseOBJ(r io.Reader) (*geodata.Mesh, error) {
	mesh := &geodata.Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			mesh.Vertices = append(mesh.Vertices, geodata.Vertex{Position: v})

		case "f":
			face, err := parseOBJFace(fields[1:], len(mesh.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			for i := 2; i < len(face); i++ {
				mesh.Indices = append(mesh.Indices, face[0], face[i-1], face[i])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return mesh, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*geodata.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

func parseOBJVertex(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: need 3 coordinates, got %d", ErrInvalidOBJVertex, len(fields))
	}
	var c [3]float32
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidOBJVertex, err)
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseOBJFace resolves 1-based and negative (relative) vertex references.
func parseOBJFace(fields []string, vertexCount int) ([]uint32, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: need 3 vertices, got %d", ErrInvalidOBJFace, len(fields))
	}
	face := make([]uint32, 0, len(fields))
	for _, field := range fields {
		ref, _, _ := strings.Cut(field, "/")
		i, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOBJFace, err)
		}
		if i < 0 {
			i += vertexCount
		} else {
			i--
		}
		if i < 0 || i >= vertexCount {
			return nil, fmt.Errorf("%w: vertex %s out of range", ErrInvalidOBJFace, ref)
		}
		face = append(face, uint32(i))
	}
	return face, nil
}
