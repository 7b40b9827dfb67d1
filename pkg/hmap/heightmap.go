package hmap

import (
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/geom"
)

// Tile is one rectangular piece of a Heightmap. Its array covers the core
// region plus the halo shared with neighbouring tiles.
type Tile struct {
	Array

	// Origin is the global pixel index of local element (0, 0).
	Origin geom.Vec2[int]
	// Core is the half-open global pixel window [A,B)x[C,D) the tile owns
	// exclusively when the field is flattened.
	Core [4]int
	// BBox is the tile extent, halo included, in the [0,1]x[0,1] domain.
	BBox geom.Vec4
}

// Heightmap is one logical shape.X x shape.Y field stored as
// tiling.X x tiling.Y overlapping tiles.
type Heightmap struct {
	Shape   geom.Vec2[int]
	Tiling  geom.Vec2[int]
	Overlap float64
	Tiles   []*Tile
}

// New allocates a zero-filled heightmap. Tiling is clamped to [1, shape]
// per axis and overlap to [0, 1].
func New(shape, tiling geom.Vec2[int], overlap float64) *Heightmap {
	h := &Heightmap{}
	h.allocate(shape, tiling, overlap)
	return h
}

// NewLike allocates a zero-filled heightmap with the storage layout of h.
func NewLike(h *Heightmap) *Heightmap {
	return New(h.Shape, h.Tiling, h.Overlap)
}

func (h *Heightmap) allocate(shape, tiling geom.Vec2[int], overlap float64) {
	shape.X = max(shape.X, 1)
	shape.Y = max(shape.Y, 1)
	tiling.X = clampInt(tiling.X, 1, shape.X)
	tiling.Y = clampInt(tiling.Y, 1, shape.Y)
	overlap = math.Max(0, math.Min(1, overlap))

	h.Shape, h.Tiling, h.Overlap = shape, tiling, overlap
	h.Tiles = make([]*Tile, 0, tiling.Area())
	for ty := 0; ty < tiling.Y; ty++ {
		cy0, cy1, y0, y1 := tileSpan(ty, tiling.Y, shape.Y, overlap)
		for tx := 0; tx < tiling.X; tx++ {
			cx0, cx1, x0, x1 := tileSpan(tx, tiling.X, shape.X, overlap)
			t := &Tile{
				Array:  *NewArray(geom.V2(x1-x0, y1-y0)),
				Origin: geom.V2(x0, y0),
				Core:   [4]int{cx0, cx1, cy0, cy1},
				BBox: geom.Vec4{
					A: float64(x0) / float64(shape.X),
					B: float64(x1) / float64(shape.X),
					C: float64(y0) / float64(shape.Y),
					D: float64(y1) / float64(shape.Y),
				},
			}
			h.Tiles = append(h.Tiles, t)
		}
	}
}

// tileSpan returns the core window [c0, c1) and the haloed window [p0, p1)
// of tile k out of n along an axis of size pixels. The halo on each side is
// half the overlap fraction of the core width.
func tileSpan(k, n, size int, overlap float64) (c0, c1, p0, p1 int) {
	c0 = k * size / n
	c1 = (k + 1) * size / n
	halo := int(math.Round(overlap * float64(c1-c0) / 2))
	p0 = max(0, c0-halo)
	p1 = min(size, c1+halo)
	return c0, c1, p0, p1
}

// Tile returns tile (tx, ty).
func (h *Heightmap) Tile(tx, ty int) *Tile {
	return h.Tiles[ty*h.Tiling.X+tx]
}

// SameStorage reports whether h and o share shape, tiling and overlap.
func (h *Heightmap) SameStorage(o *Heightmap) bool {
	return h.Shape == o.Shape && h.Tiling == o.Tiling && h.Overlap == o.Overlap
}

// SetSto changes the storage layout. Existing values are resampled into the
// new layout.
func (h *Heightmap) SetSto(shape, tiling geom.Vec2[int], overlap float64) {
	if h.Shape == shape && h.Tiling == tiling && h.Overlap == overlap {
		return
	}
	var prev *Array
	if len(h.Tiles) > 0 {
		prev = h.ToArray()
	}
	h.allocate(shape, tiling, overlap)
	if prev != nil {
		h.FromArray(prev)
	}
}

// ToArray flattens the field into one array using each tile's core window.
func (h *Heightmap) ToArray() *Array {
	a := NewArray(h.Shape)
	for _, t := range h.Tiles {
		for j := t.Core[2]; j < t.Core[3]; j++ {
			lj := j - t.Origin.Y
			src := t.Vector[lj*t.Shape.X+(t.Core[0]-t.Origin.X) : lj*t.Shape.X+(t.Core[1]-t.Origin.X)]
			copy(a.Vector[j*h.Shape.X+t.Core[0]:j*h.Shape.X+t.Core[1]], src)
		}
	}
	return a
}

// FromArray scatters a into every tile, halos included. Arrays of another
// shape are resampled first.
func (h *Heightmap) FromArray(a *Array) {
	if a.Shape != h.Shape {
		a = a.Resample(h.Shape)
	}
	for _, t := range h.Tiles {
		t.Array.CopyFrom(a.Sub(t.Origin.X, t.Origin.Y, t.Shape))
	}
}

// Clone returns a deep copy.
func (h *Heightmap) Clone() *Heightmap {
	c := &Heightmap{Shape: h.Shape, Tiling: h.Tiling, Overlap: h.Overlap}
	c.Tiles = make([]*Tile, len(h.Tiles))
	for k, t := range h.Tiles {
		nt := *t
		nt.Array = *t.Array.Clone()
		c.Tiles[k] = &nt
	}
	return c
}

// CopyFrom overwrites h with the values of src, converting layouts when
// needed.
func (h *Heightmap) CopyFrom(src *Heightmap) {
	if h.SameStorage(src) {
		for k, t := range h.Tiles {
			t.Array.CopyFrom(&src.Tiles[k].Array)
		}
		return
	}
	h.FromArray(src.ToArray())
}

// Conform returns src laid out like like. src is returned unchanged when
// the layouts already match; otherwise a converted copy is returned and src
// is left untouched.
func Conform(src, like *Heightmap) *Heightmap {
	if src == nil || src.SameStorage(like) {
		return src
	}
	c := NewLike(like)
	c.FromArray(src.ToArray())
	return c
}

// Fill sets every element of every tile to v.
func (h *Heightmap) Fill(v float32) {
	for _, t := range h.Tiles {
		t.Array.Fill(v)
	}
}

// Min returns the smallest value of the field.
func (h *Heightmap) Min() float32 {
	m := float32(math.Inf(1))
	for _, t := range h.Tiles {
		m = min(m, t.Array.Min())
	}
	return m
}

// Max returns the largest value of the field.
func (h *Heightmap) Max() float32 {
	m := float32(math.Inf(-1))
	for _, t := range h.Tiles {
		m = max(m, t.Array.Max())
	}
	return m
}

// Remap maps the global value range onto [vmin, vmax].
func (h *Heightmap) Remap(vmin, vmax float32) {
	lo, hi := h.Min(), h.Max()
	for _, t := range h.Tiles {
		t.Array.Remap(vmin, vmax, lo, hi)
	}
}

// Inverse mirrors the field inside its own value range, so the minimum and
// maximum swap places.
func (h *Heightmap) Inverse() {
	s := h.Min() + h.Max()
	for _, t := range h.Tiles {
		for k, v := range t.Vector {
			t.Vector[k] = s - v
		}
	}
}

// Apply runs fn on every element of every tile.
func (h *Heightmap) Apply(fn func(v float32) float32) {
	for _, t := range h.Tiles {
		for k, v := range t.Vector {
			t.Vector[k] = fn(v)
		}
	}
}

func (h *Heightmap) String() string {
	return fmt.Sprintf("Heightmap{shape=%dx%d tiling=%dx%d overlap=%.3g}",
		h.Shape.X, h.Shape.Y, h.Tiling.X, h.Tiling.Y, h.Overlap)
}
