package heightfield

import "slices"

// AddSpan inserts s into column (x, y), merging it with every span it
// touches. Spans whose tops lie within mergeThreshold voxels of each other
// keep the most restrictive area of the two; otherwise the higher top wins.
func (hf *Heightfield) AddSpan(x, y int, s Span, mergeThreshold int) {
	idx := x + y*hf.Width
	col := hf.columns[idx]

	s.MergedMax = max(s.MergedMax, s.Max)
	s.NSWE = 0

	// Find the first span that is not completely below s.
	i := 0
	for i < len(col) && col[i].Max < s.Min {
		i++
	}

	// Fold every overlapping span into s.
	j := i
	for j < len(col) && col[j].Min <= s.Max {
		s = mergeSpans(s, col[j], mergeThreshold)
		j++
	}

	hf.columns[idx] = slices.Replace(col, i, j, s)
}

func mergeSpans(s, other Span, mergeThreshold int) Span {
	out := Span{
		Min:       min(s.Min, other.Min),
		MergedMax: max(s.MergedMax, other.MergedMax),
	}

	diff := s.Max - other.Max
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= mergeThreshold:
		out.Max = max(s.Max, other.Max)
		out.Area = max(s.Area, other.Area)
	case s.Area == AreaWall && other.Area == AreaWall:
		out.Max = max(s.Max, other.Max)
		out.Area = AreaWall
	case s.Area == AreaWall:
		// The standing surface stays where the walkable span is; the wall
		// height is remembered in MergedMax.
		out.Max = other.Max
		out.Area = AreaWall
	case other.Area == AreaWall:
		out.Max = s.Max
		out.Area = AreaWall
	case s.Max > other.Max:
		out.Max = s.Max
		out.Area = s.Area
	default:
		out.Max = other.Max
		out.Area = other.Area
	}
	return out
}
