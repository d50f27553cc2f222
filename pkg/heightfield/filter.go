package heightfield

// FilterLowClearance marks a span unwalkable when the open space above it
// is shorter than walkableHeight voxels.
func (hf *Heightfield) FilterLowClearance(walkableHeight int) {
	for _, col := range hf.columns {
		for i := range col {
			if openTop(col, i)-col[i].Max < walkableHeight {
				col[i].Area = AreaNone
			}
		}
	}
}
