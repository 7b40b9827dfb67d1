package hmap

// SmoothOverlapBuffers reconciles the halo regions of adjacent tiles. Every
// global pixel covered by several tiles receives the weighted average of
// their values; weights ramp from the tile edge towards its core, so a
// tile's contribution fades out across its own halo. Afterwards all tiles
// hold the same value at every shared pixel.
func (h *Heightmap) SmoothOverlapBuffers() {
	if len(h.Tiles) < 2 || h.Overlap == 0 {
		return
	}

	n := h.Shape.X * h.Shape.Y
	acc := make([]float64, n)
	wsum := make([]float64, n)

	for _, t := range h.Tiles {
		wx := axisWeights(t.Shape.X, t.Core[0]-t.Origin.X, t.Origin.X+t.Shape.X-t.Core[1])
		wy := axisWeights(t.Shape.Y, t.Core[2]-t.Origin.Y, t.Origin.Y+t.Shape.Y-t.Core[3])
		for j := 0; j < t.Shape.Y; j++ {
			g := (t.Origin.Y+j)*h.Shape.X + t.Origin.X
			for i := 0; i < t.Shape.X; i++ {
				w := wx[i] * wy[j]
				acc[g+i] += w * float64(t.At(i, j))
				wsum[g+i] += w
			}
		}
	}

	for _, t := range h.Tiles {
		for j := 0; j < t.Shape.Y; j++ {
			g := (t.Origin.Y+j)*h.Shape.X + t.Origin.X
			for i := 0; i < t.Shape.X; i++ {
				t.Set(i, j, float32(acc[g+i]/wsum[g+i]))
			}
		}
	}
}

// axisWeights returns the per-pixel blending weight along one tile axis of
// size pixels with the given left and right halo widths. Weights rise
// linearly across each halo and stay at 1 over the core.
func axisWeights(size, left, right int) []float64 {
	w := make([]float64, size)
	for k := range w {
		v := 1.0
		if left > 0 && k < left {
			v = min(v, float64(k+1)/float64(left+1))
		}
		if d := size - 1 - k; right > 0 && d < right {
			v = min(v, float64(d+1)/float64(right+1))
		}
		w[k] = v
	}
	return w
}

// MaxSeam returns the largest absolute difference between two tiles at any
// pixel they share. It is zero for a fully stitched field.
func (h *Heightmap) MaxSeam() float32 {
	if len(h.Tiles) < 2 {
		return 0
	}
	n := h.Shape.X * h.Shape.Y
	first := make([]float32, n)
	seen := make([]bool, n)
	var worst float32
	for _, t := range h.Tiles {
		for j := 0; j < t.Shape.Y; j++ {
			g := (t.Origin.Y+j)*h.Shape.X + t.Origin.X
			for i := 0; i < t.Shape.X; i++ {
				v := t.At(i, j)
				if !seen[g+i] {
					seen[g+i] = true
					first[g+i] = v
					continue
				}
				d := v - first[g+i]
				if d < 0 {
					d = -d
				}
				worst = max(worst, d)
			}
		}
	}
	return worst
}
