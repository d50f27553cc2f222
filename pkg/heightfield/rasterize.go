package heightfield

import (
	gomath "math"

	"github.com/Faultbox/geobuild/pkg/math"
)

// Rasterization runs in a Y-up frame: world (x, y, z) becomes (x, z, y),
// so index 1 is the vertical axis and indices 0 and 2 address the grid.
const (
	axisX  = 0
	axisUp = 1
	axisY  = 2
)

// Clipped polygons never exceed 7 vertices.
const maxPolyVerts = 7

type polyBuf [maxPolyVerts * 3]float32

func toRasterFrame(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Z, v.Y}
}

// RasterizeTriangles rasterizes every triangle into the heightfield, tagging
// the resulting spans with the matching entry of areas. Spans whose tops lie
// within mergeThreshold voxels merge their area classification.
func (hf *Heightfield) RasterizeTriangles(verts []math.Vec3, tris []int32, areas []Area, mergeThreshold int) {
	bmin := toRasterFrame(hf.Bounds.Min)
	bmax := toRasterFrame(hf.Bounds.Max)

	for i := 0; i < len(tris)/3; i++ {
		hf.rasterizeTriangle(
			toRasterFrame(verts[tris[i*3+0]]),
			toRasterFrame(verts[tris[i*3+1]]),
			toRasterFrame(verts[tris[i*3+2]]),
			areas[i], bmin, bmax, mergeThreshold)
	}
}

func overlapBounds(aMin, aMax, bMin, bMax [3]float32) bool {
	return aMin[0] <= bMax[0] && aMax[0] >= bMin[0] &&
		aMin[1] <= bMax[1] && aMax[1] >= bMin[1] &&
		aMin[2] <= bMax[2] && aMax[2] >= bMin[2]
}

func (hf *Heightfield) rasterizeTriangle(v0, v1, v2 [3]float32, area Area,
	bmin, bmax [3]float32, mergeThreshold int) {

	var triMin, triMax [3]float32
	for k := 0; k < 3; k++ {
		triMin[k] = min(v0[k], v1[k], v2[k])
		triMax[k] = max(v0[k], v1[k], v2[k])
	}

	// Skip triangles entirely outside the heightfield.
	if !overlapBounds(triMin, triMax, bmin, bmax) {
		return
	}

	w := hf.Width
	h := hf.Height
	by := bmax[axisUp] - bmin[axisUp]
	cs := hf.CellSize
	ics := 1.0 / hf.CellSize
	ich := 1.0 / hf.CellHeight

	// Footprint of the triangle on the grid's y axis.
	y0 := int((triMin[axisY] - bmin[axisY]) * ics)
	y1 := int((triMax[axisY] - bmin[axisY]) * ics)
	// -1 rather than 0 so the polygon is cut properly at the first row
	y0 = clamp(y0, -1, h-1)
	y1 = clamp(y1, 0, h-1)

	var in, inRow, p1, p2 polyBuf
	copy(in[0:3], v0[:])
	copy(in[3:6], v1[:])
	copy(in[6:9], v2[:])
	nvIn := 3

	for y := y0; y <= y1; y++ {
		// Clip polygon to the row, keep the remainder for the next rows.
		cellY := bmin[axisY] + float32(y)*cs
		var nvRow, nvRest int
		dividePoly(in[:], nvIn, inRow[:], &nvRow, p1[:], &nvRest, cellY+cs, axisY)
		in, p1 = p1, in
		nvIn = nvRest

		if nvRow < 3 || y < 0 {
			continue
		}

		minX, maxX := inRow[0], inRow[0]
		for v := 1; v < nvRow; v++ {
			minX = min(minX, inRow[v*3])
			maxX = max(maxX, inRow[v*3])
		}
		x0 := int((minX - bmin[axisX]) * ics)
		x1 := int((maxX - bmin[axisX]) * ics)
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = clamp(x0, -1, w-1)
		x1 = clamp(x1, 0, w-1)

		nvRest = nvRow
		for x := x0; x <= x1; x++ {
			// Clip polygon to the column.
			cellX := bmin[axisX] + float32(x)*cs
			var nv, nv2 int
			dividePoly(inRow[:], nvRest, p1[:], &nv, p2[:], &nv2, cellX+cs, axisX)
			inRow, p2 = p2, inRow
			nvRest = nv2

			if nv < 3 || x < 0 {
				continue
			}

			spanMin, spanMax := p1[axisUp], p1[axisUp]
			for v := 1; v < nv; v++ {
				spanMin = min(spanMin, p1[v*3+axisUp])
				spanMax = max(spanMax, p1[v*3+axisUp])
			}
			spanMin -= bmin[axisUp]
			spanMax -= bmin[axisUp]

			// Skip spans completely outside the vertical bounds.
			if spanMax < 0 || spanMin > by {
				continue
			}
			spanMin = max(spanMin, 0)
			spanMax = min(spanMax, by)

			// Snap to the voxel grid.
			lo := clamp(int(gomath.Floor(float64(spanMin*ich))), 0, MaxSpanHeight)
			hi := clamp(int(gomath.Ceil(float64(spanMax*ich))), lo+1, MaxSpanHeight)

			hf.AddSpan(x, y, Span{Min: lo, Max: hi, MergedMax: hi, Area: area}, mergeThreshold)
		}
	}
}

// dividePoly splits a convex polygon along axis at axisOffset. out1 gets the
// part at or below the offset, out2 the rest.
func dividePoly(in []float32, inCount int,
	out1 []float32, out1Count *int,
	out2 []float32, out2Count *int,
	axisOffset float32, axis int) {

	var delta [maxPolyVerts + 5]float32
	for v := 0; v < inCount; v++ {
		delta[v] = axisOffset - in[v*3+axis]
	}

	n1, n2 := 0, 0
	for a, b := 0, inCount-1; a < inCount; b, a = a, a+1 {
		sameSide := (delta[a] >= 0) == (delta[b] >= 0)

		if !sameSide {
			s := delta[b] / (delta[b] - delta[a])
			for k := 0; k < 3; k++ {
				out1[n1*3+k] = in[b*3+k] + (in[a*3+k]-in[b*3+k])*s
			}
			copy(out2[n2*3:n2*3+3], out1[n1*3:n1*3+3])
			n1++
			n2++

			// Points on the dividing line were added above.
			if delta[a] > 0 {
				copy(out1[n1*3:n1*3+3], in[a*3:a*3+3])
				n1++
			} else if delta[a] < 0 {
				copy(out2[n2*3:n2*3+3], in[a*3:a*3+3])
				n2++
			}
			continue
		}

		if delta[a] >= 0 {
			copy(out1[n1*3:n1*3+3], in[a*3:a*3+3])
			n1++
			if delta[a] != 0 {
				continue
			}
		}
		copy(out2[n2*3:n2*3+3], in[a*3:a*3+3])
		n2++
	}

	*out1Count = n1
	*out2Count = n2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
