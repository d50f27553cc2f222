package heightfield

// Connectivity bits of Span.NSWE.
const (
	DirEast  uint8 = 1 << 0
	DirWest  uint8 = 1 << 1
	DirSouth uint8 = 1 << 2
	DirNorth uint8 = 1 << 3

	DirAll = DirNorth | DirSouth | DirWest | DirEast
)

// North is towards decreasing grid y, west towards decreasing grid x.
var directions = [4]struct {
	dx, dy int
	bit    uint8
}{
	{0, -1, DirNorth},
	{0, 1, DirSouth},
	{-1, 0, DirWest},
	{1, 0, DirEast},
}

// CalculateNSWE computes the connectivity mask of every walkable span.
// All parameters are in voxels. Unwalkable spans get an empty mask.
func (hf *Heightfield) CalculateNSWE(walkableHeight, minClimb, maxClimb int) {
	for y := 0; y < hf.Height; y++ {
		for x := 0; x < hf.Width; x++ {
			col := hf.columns[x+y*hf.Width]
			for i := range col {
				s := &col[i]
				s.NSWE = 0
				if s.Area == AreaNone {
					continue
				}
				for _, d := range directions {
					if hf.passable(s, openTop(col, i), x+d.dx, y+d.dy, walkableHeight, minClimb, maxClimb) {
						s.NSWE |= d.bit
					}
				}
			}
		}
	}
}

func (hf *Heightfield) passable(s *Span, top, nx, ny, walkableHeight, minClimb, maxClimb int) bool {
	// Leaving the grid is always allowed.
	if nx < 0 || ny < 0 || nx >= hf.Width || ny >= hf.Height {
		return true
	}

	bottom := s.Max
	neighbors := hf.columns[nx+ny*hf.Width]
	for i := range neighbors {
		n := &neighbors[i]
		if n.Area == AreaNone {
			continue
		}

		nBottom := n.Max
		overlap := min(top, openTop(neighbors, i)) - max(bottom, nBottom)
		if overlap < walkableHeight {
			continue
		}

		limit := maxClimb
		if s.Area >= AreaSteep || n.Area >= AreaSteep {
			limit = minClimb
		}

		climb := nBottom - bottom
		if n.Area == AreaWall && bottom < n.MergedMax {
			climb = n.MergedMax - bottom
		}
		return climb <= limit
	}
	return false
}
