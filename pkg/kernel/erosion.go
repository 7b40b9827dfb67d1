package kernel

import "github.com/chazu/loam/pkg/hmap"

// neighbours of the 8-connected stencil with their distance weights.
var neighbours = [8]struct {
	di, dj int
	dist   float32
}{
	{-1, -1, 1.41421356}, {0, -1, 1}, {1, -1, 1.41421356},
	{-1, 0, 1}, {1, 0, 1},
	{-1, 1, 1.41421356}, {0, 1, 1}, {1, 1, 1.41421356},
}

// Thermal runs iterations of thermal erosion on z. Material moves from a
// cell towards its lower neighbours wherever the slope exceeds talus, in
// value units per pixel. Each iteration is computed from a snapshot so the
// result does not depend on traversal order. When bedrock is not nil, z
// never drops below it.
func Thermal(z *hmap.Array, talus float32, iterations int, bedrock *hmap.Array) {
	const ct = 0.5
	nx, ny := z.Shape.X, z.Shape.Y
	delta := hmap.NewArray(z.Shape)
	for it := 0; it < iterations; it++ {
		delta.Fill(0)
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				h := z.At(i, j)
				var dmax, dsum float32
				var drops [8]float32
				for k, nb := range neighbours {
					ii, jj := i+nb.di, j+nb.dj
					if ii < 0 || jj < 0 || ii >= nx || jj >= ny {
						continue
					}
					d := (h - z.At(ii, jj)) / nb.dist
					if d > talus {
						drops[k] = d - talus
						dsum += drops[k]
						dmax = max(dmax, d)
					}
				}
				if dsum == 0 {
					continue
				}
				amount := ct * (dmax - talus)
				if bedrock != nil {
					amount = min(amount, max(0, h-bedrock.At(i, j)))
				}
				delta.Set(i, j, delta.At(i, j)-amount)
				for k, nb := range neighbours {
					if drops[k] > 0 {
						ii, jj := i+nb.di, j+nb.dj
						delta.Set(ii, jj, delta.At(ii, jj)+amount*drops[k]/dsum)
					}
				}
			}
		}
		for n, d := range delta.Vector {
			z.Vector[n] += d
		}
	}
}
