package world

import (
	"bytes"
	"testing"

	"github.com/Faultbox/geobuild/pkg/formats"
	"github.com/Faultbox/geobuild/pkg/geodata"
)

// mockRegion creates a flat w x h region at height 0. Blocked cells lose
// all connectivity and their neighbors lose the direction leading into
// them.
func mockRegion(t *testing.T, w, h int, blocked [][2]int) *formats.L2JRegion {
	t.Helper()

	cells := make([]geodata.Cell, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := &cells[x*h+y]
			c.X, c.Y = int16(x), int16(y)
			c.SetNSWE(geodata.AllDirections)
		}
	}

	at := func(x, y int) *geodata.Cell {
		if x < 0 || y < 0 || x >= w || y >= h {
			return nil
		}
		return &cells[x*h+y]
	}
	for _, b := range blocked {
		x, y := b[0], b[1]
		at(x, y).SetNSWE(0)
		if c := at(x-1, y); c != nil {
			c.East = false
		}
		if c := at(x+1, y); c != nil {
			c.West = false
		}
		if c := at(x, y-1); c != nil {
			c.South = false
		}
		if c := at(x, y+1); c != nil {
			c.North = false
		}
	}

	grid := geodata.Grid{BlocksX: 1, BlocksY: 1, BlockCellsX: w, BlockCellsY: h, MaxLayers: 4}
	return encodeRegion(t, grid, cells)
}

func encodeRegion(t *testing.T, grid geodata.Grid, cells []geodata.Cell) *formats.L2JRegion {
	t.Helper()

	var buf bytes.Buffer
	if err := formats.NewL2JSerializer(grid).Serialize(&geodata.Geodata{Cells: cells}, &buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	region, err := formats.LoadL2JRegion(buf.Bytes(), grid)
	if err != nil {
		t.Fatalf("LoadL2JRegion: %v", err)
	}
	return region
}

func TestPathFinder_FindPath_Simple(t *testing.T) {
	// 5x5 grid, no obstacles
	pf := NewPathFinder(mockRegion(t, 5, 5, nil))

	path := pf.FindPath(Point{0, 0, 0}, Point{4, 4, 0})
	if path == nil {
		t.Fatal("expected path, got nil")
	}

	if path[0] != (Point{0, 0, 0}) {
		t.Errorf("path should start at (0,0,0), got %v", path[0])
	}
	if last := path[len(path)-1]; last != (Point{4, 4, 0}) {
		t.Errorf("path should end at (4,4,0), got %v", last)
	}
	if len(path) != 5 {
		t.Errorf("expected a straight diagonal of 5 cells, got %d", len(path))
	}
}

func TestPathFinder_FindPath_WithObstacle(t *testing.T) {
	// 5x5 grid with wall in the middle
	blocked := [][2]int{
		{2, 0}, {2, 1}, {2, 2}, {2, 3},
	}
	pf := NewPathFinder(mockRegion(t, 5, 5, blocked))

	path := pf.FindPath(Point{0, 0, 0}, Point{4, 0, 0})
	if path == nil {
		t.Fatal("expected path around obstacle, got nil")
	}

	for _, p := range path {
		if p.X == 2 && p.Y < 4 {
			t.Errorf("path goes through blocked cell %v", p)
		}
	}
}

func TestPathFinder_FindPath_NoPath(t *testing.T) {
	// Complete wall
	blocked := [][2]int{
		{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4},
	}
	pf := NewPathFinder(mockRegion(t, 5, 5, blocked))

	if path := pf.FindPath(Point{0, 0, 0}, Point{4, 0, 0}); path != nil {
		t.Errorf("expected no path, got %v", path)
	}
}

func TestPathFinder_FindPath_SameStartGoal(t *testing.T) {
	pf := NewPathFinder(mockRegion(t, 5, 5, nil))

	path := pf.FindPath(Point{2, 2, 0}, Point{2, 2, 0})
	if len(path) != 1 {
		t.Fatalf("expected single-cell path, got %v", path)
	}
}

func TestPathFinder_FindPath_OutOfBounds(t *testing.T) {
	pf := NewPathFinder(mockRegion(t, 5, 5, nil))

	if path := pf.FindPath(Point{-1, 0, 0}, Point{4, 4, 0}); path != nil {
		t.Error("expected nil for out of bounds start")
	}
	if path := pf.FindPath(Point{0, 0, 0}, Point{5, 5, 0}); path != nil {
		t.Error("expected nil for out of bounds goal")
	}
}

func TestPathFinder_FindPath_BlockedStart(t *testing.T) {
	pf := NewPathFinder(mockRegion(t, 5, 5, [][2]int{{0, 0}}))

	if path := pf.FindPath(Point{0, 0, 0}, Point{4, 4, 0}); path != nil {
		t.Errorf("expected nil when start cannot move, got %v", path)
	}
}

func TestPathFinder_FindPath_Bridge(t *testing.T) {
	// A ramp up to a bridge over a closed ground cell and back down.
	grid := geodata.Grid{BlocksX: 1, BlocksY: 1, BlockCellsX: 5, BlockCellsY: 1, MaxLayers: 4}
	open := func(x, z int16) geodata.Cell {
		c := geodata.Cell{X: x, Z: z}
		c.SetNSWE(geodata.AllDirections)
		return c
	}
	cells := []geodata.Cell{
		open(0, 0),
		open(1, 40),
		{X: 2, Z: 0},
		open(2, 64),
		open(3, 40),
		open(4, 0),
	}
	pf := NewPathFinder(encodeRegion(t, grid, cells))

	path := pf.FindPath(Point{0, 0, 0}, Point{4, 0, 0})
	want := []Point{{0, 0, 0}, {1, 0, 40}, {2, 0, 64}, {3, 0, 40}, {4, 0, 0}}
	if len(path) != len(want) {
		t.Fatalf("expected %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("step %d: expected %v, got %v", i, want[i], path[i])
		}
	}

	if path := pf.FindPath(Point{2, 0, 0}, Point{4, 0, 0}); path != nil {
		t.Errorf("ground under the bridge is closed, got %v", path)
	}
}

func TestPathFinder_CanMove(t *testing.T) {
	pf := NewPathFinder(mockRegion(t, 3, 3, [][2]int{{1, 1}}))

	tests := []struct {
		p    Point
		dir  uint8
		want bool
	}{
		{Point{0, 1, 0}, geodata.East, false},
		{Point{0, 1, 0}, geodata.North, true},
		{Point{1, 0, 0}, geodata.South, false},
		{Point{1, 1, 0}, geodata.West, false},
		{Point{0, 0, 0}, geodata.West, true}, // region edge stays open
		{Point{3, 0, 0}, geodata.West, false},
	}

	for _, tt := range tests {
		if got := pf.CanMove(tt.p, tt.dir); got != tt.want {
			t.Errorf("CanMove(%v, %d) = %v, expected %v", tt.p, tt.dir, got, tt.want)
		}
	}
}

func TestNewPathFinder_Nil(t *testing.T) {
	if pf := NewPathFinder(nil); pf != nil {
		t.Error("expected nil pathfinder for nil region")
	}
	var pf *PathFinder
	if path := pf.FindPath(Point{}, Point{}); path != nil {
		t.Error("expected nil path from nil pathfinder")
	}
}
