package heightfield

import "fmt"

// Merge re-inserts every span of src into the coarser dst. Source column
// (x, y) lands in destination column (x/ratioX, y/ratioY) and spans meeting
// in one destination column merge with AddSpan using mergeThreshold.
func Merge(src, dst *Heightfield, mergeThreshold int) error {
	if src.Width < dst.Width || src.Height < dst.Height || src.CellHeight != dst.CellHeight {
		return fmt.Errorf("%w: source %dx%d, destination %dx%d",
			ErrResolutionMismatch, src.Width, src.Height, dst.Width, dst.Height)
	}

	ratioX := src.Width / dst.Width
	ratioY := src.Height / dst.Height

	for y := 0; y < src.Height; y++ {
		dy := min(y/ratioY, dst.Height-1)
		for x := 0; x < src.Width; x++ {
			dx := min(x/ratioX, dst.Width-1)
			for _, s := range src.Spans(x, y) {
				dst.AddSpan(dx, dy, s, mergeThreshold)
			}
		}
	}
	return nil
}
