package hmap

import (
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/geom"
)

// Array is a dense 2D float32 field. Element (i, j) lives at
// Vector[j*Shape.X+i]; i runs along x and j along y.
type Array struct {
	Shape  geom.Vec2[int]
	Vector []float32
}

// NewArray allocates a zero-filled array.
func NewArray(shape geom.Vec2[int]) *Array {
	if shape.X < 0 || shape.Y < 0 {
		panic(fmt.Sprintf("hmap: negative array shape %v", shape))
	}
	return &Array{Shape: shape, Vector: make([]float32, shape.X*shape.Y)}
}

// NewArrayFilled allocates an array with every element set to v.
func NewArrayFilled(shape geom.Vec2[int], v float32) *Array {
	a := NewArray(shape)
	a.Fill(v)
	return a
}

// At returns element (i, j).
func (a *Array) At(i, j int) float32 {
	return a.Vector[j*a.Shape.X+i]
}

// Set assigns element (i, j).
func (a *Array) Set(i, j int, v float32) {
	a.Vector[j*a.Shape.X+i] = v
}

// AtClamped returns element (i, j) with indices clamped into the array.
func (a *Array) AtClamped(i, j int) float32 {
	i = clampInt(i, 0, a.Shape.X-1)
	j = clampInt(j, 0, a.Shape.Y-1)
	return a.At(i, j)
}

// Bilinear samples the array at fractional pixel coordinates, clamping at
// the borders.
func (a *Array) Bilinear(x, y float64) float32 {
	x = math.Max(0, math.Min(x, float64(a.Shape.X-1)))
	y = math.Max(0, math.Min(y, float64(a.Shape.Y-1)))
	i, j := int(x), int(y)
	u, v := float32(x-float64(i)), float32(y-float64(j))
	f00 := a.AtClamped(i, j)
	f10 := a.AtClamped(i+1, j)
	f01 := a.AtClamped(i, j+1)
	f11 := a.AtClamped(i+1, j+1)
	return (1-u)*(1-v)*f00 + u*(1-v)*f10 + (1-u)*v*f01 + u*v*f11
}

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.Vector) }

// Fill sets every element to v.
func (a *Array) Fill(v float32) {
	for k := range a.Vector {
		a.Vector[k] = v
	}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	c := &Array{Shape: a.Shape, Vector: make([]float32, len(a.Vector))}
	copy(c.Vector, a.Vector)
	return c
}

// CopyFrom overwrites a with the contents of src, which must have the same
// shape.
func (a *Array) CopyFrom(src *Array) {
	if a.Shape != src.Shape {
		panic(fmt.Sprintf("hmap: copy shape mismatch %v != %v", a.Shape, src.Shape))
	}
	copy(a.Vector, src.Vector)
}

// Min returns the smallest element, or 0 for an empty array.
func (a *Array) Min() float32 {
	if len(a.Vector) == 0 {
		return 0
	}
	m := a.Vector[0]
	for _, v := range a.Vector[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest element, or 0 for an empty array.
func (a *Array) Max() float32 {
	if len(a.Vector) == 0 {
		return 0
	}
	m := a.Vector[0]
	for _, v := range a.Vector[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Remap linearly maps the interval [from0, from1] onto [vmin, vmax]. When
// the source interval is empty every element becomes vmin.
func (a *Array) Remap(vmin, vmax, from0, from1 float32) {
	if from1 == from0 {
		a.Fill(vmin)
		return
	}
	scale := (vmax - vmin) / (from1 - from0)
	for k, v := range a.Vector {
		a.Vector[k] = vmin + (v-from0)*scale
	}
}

// Clamp limits every element to [vmin, vmax].
func (a *Array) Clamp(vmin, vmax float32) {
	for k, v := range a.Vector {
		a.Vector[k] = float32(math.Max(float64(vmin), math.Min(float64(vmax), float64(v))))
	}
}

// Sub extracts the window of the given shape whose lower corner is at
// (x0, y0).
func (a *Array) Sub(x0, y0 int, shape geom.Vec2[int]) *Array {
	s := NewArray(shape)
	for j := 0; j < shape.Y; j++ {
		row := (y0+j)*a.Shape.X + x0
		copy(s.Vector[j*shape.X:(j+1)*shape.X], a.Vector[row:row+shape.X])
	}
	return s
}

// Paste writes src into a with its lower corner at (x0, y0).
func (a *Array) Paste(x0, y0 int, src *Array) {
	for j := 0; j < src.Shape.Y; j++ {
		row := (y0+j)*a.Shape.X + x0
		copy(a.Vector[row:row+src.Shape.X], src.Vector[j*src.Shape.X:(j+1)*src.Shape.X])
	}
}

// Resample returns a copy of a resized to shape with bilinear
// interpolation. Pixel centers are aligned so the resampled field covers
// the same domain.
func (a *Array) Resample(shape geom.Vec2[int]) *Array {
	if shape == a.Shape {
		return a.Clone()
	}
	r := NewArray(shape)
	if a.Size() == 0 {
		return r
	}
	sx := float64(a.Shape.X) / float64(shape.X)
	sy := float64(a.Shape.Y) / float64(shape.Y)
	for j := 0; j < shape.Y; j++ {
		y := (float64(j)+0.5)*sy - 0.5
		for i := 0; i < shape.X; i++ {
			x := (float64(i)+0.5)*sx - 0.5
			r.Set(i, j, a.Bilinear(x, y))
		}
	}
	return r
}

// Coord returns the domain coordinate of pixel index k along an axis of n
// pixels spanning [lo, hi).
func Coord(k, n int, lo, hi float64) float64 {
	return lo + (hi-lo)*float64(k)/float64(n)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
