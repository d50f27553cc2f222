// Package world answers movement queries over exported geodata regions.
package world

import (
	"container/heap"

	"github.com/Faultbox/geobuild/pkg/formats"
	"github.com/Faultbox/geobuild/pkg/geodata"
)

// Point is a cell position with the height of its layer.
type Point struct {
	X, Y, Z int
}

// PathNode represents a node in the A* search.
type PathNode struct {
	Point
	G      float32 // Cost from start
	H      float32 // Heuristic (estimated cost to goal)
	F      float32 // Total cost (G + H)
	Parent *PathNode
	Index  int // Index in heap
}

// PathHeap implements a priority queue for A* pathfinding.
type PathHeap []*PathNode

func (h PathHeap) Len() int           { return len(h) }
func (h PathHeap) Less(i, j int) bool { return h[i].F < h[j].F }
func (h PathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *PathHeap) Push(x any) {
	n := len(*h)
	node := x.(*PathNode)
	node.Index = n
	*h = append(*h, node)
}

func (h *PathHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*h = old[0 : n-1]
	return node
}

// step is one of the eight moves. Diagonal moves need both of their
// straight components to be open.
type step struct {
	dx, dy int
	dirs   []uint8
}

var steps = []step{
	{0, 1, []uint8{geodata.South}},
	{-1, 1, []uint8{geodata.West, geodata.South}},
	{-1, 0, []uint8{geodata.West}},
	{-1, -1, []uint8{geodata.West, geodata.North}},
	{0, -1, []uint8{geodata.North}},
	{1, -1, []uint8{geodata.East, geodata.North}},
	{1, 0, []uint8{geodata.East}},
	{1, 1, []uint8{geodata.East, geodata.South}},
}

const (
	straightCost = float32(1.0)
	diagonalCost = float32(1.414)
)

// PathFinder searches paths across the layers of an L2J region. Moves
// follow the NSWE flags of the cell being left.
type PathFinder struct {
	region *formats.L2JRegion
	width  int
	height int
}

// NewPathFinder creates a new pathfinder.
func NewPathFinder(region *formats.L2JRegion) *PathFinder {
	if region == nil {
		return nil
	}
	grid := region.Grid()
	return &PathFinder{
		region: region,
		width:  grid.CellsX(),
		height: grid.CellsY(),
	}
}

// FindPath finds a path between the layers nearest to start and goal.
// Returns nil if no path exists.
func (pf *PathFinder) FindPath(start, goal Point) []Point {
	if pf == nil || pf.region == nil {
		return nil
	}
	if !pf.inBounds(start.X, start.Y) || !pf.inBounds(goal.X, goal.Y) {
		return nil
	}

	start.Z = pf.region.NearestZ(start.X, start.Y, start.Z)
	goal.Z = pf.region.NearestZ(goal.X, goal.Y, goal.Z)

	openSet := &PathHeap{}
	heap.Init(openSet)

	closedSet := make(map[Point]bool)
	nodeMap := make(map[Point]*PathNode)

	startNode := &PathNode{Point: start, H: heuristic(start, goal)}
	startNode.F = startNode.H
	heap.Push(openSet, startNode)
	nodeMap[start] = startNode

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*PathNode)
		if current.Point == goal {
			return reconstructPath(current)
		}
		closedSet[current.Point] = true

		for i, s := range steps {
			next, ok := pf.move(current.Point, s)
			if !ok || closedSet[next] {
				continue
			}

			moveCost := straightCost
			if i%2 == 1 {
				moveCost = diagonalCost
			}
			g := current.G + moveCost

			neighbor, exists := nodeMap[next]
			if !exists {
				neighbor = &PathNode{Point: next, G: g, H: heuristic(next, goal), Parent: current}
				neighbor.F = neighbor.G + neighbor.H
				nodeMap[next] = neighbor
				heap.Push(openSet, neighbor)
			} else if g < neighbor.G {
				neighbor.G = g
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	return nil
}

// CanMove reports whether a single move from p in direction dir is open.
func (pf *PathFinder) CanMove(p Point, dir uint8) bool {
	if pf == nil || !pf.inBounds(p.X, p.Y) {
		return false
	}
	z := pf.region.NearestZ(p.X, p.Y, p.Z)
	return pf.region.NSWE(p.X, p.Y, z)&dir != 0
}

// move applies s to p. The destination layer is the one nearest to the
// height of the layer being left.
func (pf *PathFinder) move(p Point, s step) (Point, bool) {
	nx, ny := p.X+s.dx, p.Y+s.dy
	if !pf.inBounds(nx, ny) {
		return Point{}, false
	}

	nswe := pf.region.NSWE(p.X, p.Y, p.Z)
	for _, dir := range s.dirs {
		if nswe&dir == 0 {
			return Point{}, false
		}
	}

	if len(s.dirs) == 2 {
		// Both corner cells must allow finishing the move.
		hx := Point{X: nx, Y: p.Y, Z: pf.region.NearestZ(nx, p.Y, p.Z)}
		hy := Point{X: p.X, Y: ny, Z: pf.region.NearestZ(p.X, ny, p.Z)}
		if pf.region.NSWE(hx.X, hx.Y, hx.Z)&s.dirs[1] == 0 ||
			pf.region.NSWE(hy.X, hy.Y, hy.Z)&s.dirs[0] == 0 {
			return Point{}, false
		}
	}

	return Point{X: nx, Y: ny, Z: pf.region.NearestZ(nx, ny, p.Z)}, true
}

func (pf *PathFinder) inBounds(x, y int) bool {
	return x >= 0 && x < pf.width && y >= 0 && y < pf.height
}

// heuristic calculates the estimated distance using octile distance.
func heuristic(a, b Point) float32 {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	if dx < dy {
		return float32(dx)*diagonalCost + float32(dy-dx)
	}
	return float32(dy)*diagonalCost + float32(dx-dy)
}

func reconstructPath(node *PathNode) []Point {
	var path []Point
	for node != nil {
		path = append(path, node.Point)
		node = node.Parent
	}
	// Reverse path (it's built from goal to start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
