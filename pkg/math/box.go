package math

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// BoxOf returns the bounding box of the given points.
// An empty slice yields the zero box.
func BoxOf(points []Vec3) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// IsEmpty reports whether the box has no extent on the horizontal plane.
func (b Box) IsEmpty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y
}

// Size returns the extent along each axis.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Extend grows the box to contain p.
func (b Box) Extend(p Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}
