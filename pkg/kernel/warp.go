package kernel

import (
	"fmt"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// Warp resamples in at positions displaced by scale*dx and scale*dy, both
// in domain units, and writes the result into out. Displaced positions
// outside the array are clamped to its border. A nil displacement field
// means no displacement along that axis.
func Warp(out, in, dx, dy *hmap.Array, bbox geom.Vec4, scale float64) error {
	if in.Shape != out.Shape {
		return fmt.Errorf("warp: shape mismatch %v -> %v", in.Shape, out.Shape)
	}
	src := in
	if in == out {
		src = in.Clone()
	}
	nx, ny := float64(out.Shape.X), float64(out.Shape.Y)
	// pixels per domain unit
	sx, sy := nx/bbox.Width(), ny/bbox.Height()
	for j := 0; j < out.Shape.Y; j++ {
		for i := 0; i < out.Shape.X; i++ {
			px := float64(i) + scale*float64(at(dx, i, j, 0))*sx
			py := float64(j) + scale*float64(at(dy, i, j, 0))*sy
			out.Set(i, j, src.Bilinear(px, py))
		}
	}
	return nil
}
