// Package kernel holds the array-level numerics behind the built-in nodes:
// coherent and white noise, filters, blending, erosion, warping, colour
// mapping and the rasterization of point clouds and polylines.
//
// Every routine works on one hmap.Array together with the bbox that array
// covers in the [0,1]x[0,1] domain, so the same code runs on a whole field
// (SingleArray mode) or on a single tile (Distributed and GPU modes).
// Routines evaluated on tiles must depend only on domain coordinates, never
// on local indices, for the stitched result to be seamless.
package kernel

import (
	"math"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// Grid returns the domain coordinates of every column and row of an array
// of the given shape covering bbox.
func Grid(shape geom.Vec2[int], bbox geom.Vec4) (xs, ys []float64) {
	xs = make([]float64, shape.X)
	for i := range xs {
		xs[i] = hmap.Coord(i, shape.X, bbox.A, bbox.B)
	}
	ys = make([]float64, shape.Y)
	for j := range ys {
		ys[j] = hmap.Coord(j, shape.Y, bbox.C, bbox.D)
	}
	return xs, ys
}

// at reads a optional field, returning def when a is nil.
func at(a *hmap.Array, i, j int, def float32) float32 {
	if a == nil {
		return def
	}
	return a.At(i, j)
}

// clamp01 clamps v into [0, 1]. NaN maps to 0.
func clamp01(v float32) float32 {
	if v != v {
		return 0
	}
	return min(1, max(0, v))
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// splitmix64 is the finalizer of the SplitMix64 generator.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// hash2 maps an integer lattice point and a seed to [0, 1).
func hash2(ix, iy int64, seed uint32) float64 {
	h := splitmix64(uint64(ix)*0x632be59bd9b4e019 ^ uint64(iy)*0x8cb92ba72f3d8dd7 ^ uint64(seed)<<1)
	return float64(h>>11) / (1 << 53)
}

// quantize snaps a domain coordinate onto a fixed 2^-24 lattice so that
// tiles computing the same pixel agree bit for bit.
func quantize(x float64) int64 {
	return int64(math.Round(x * (1 << 24)))
}
