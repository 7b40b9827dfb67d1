package hmap

import "github.com/chazu/loam/pkg/geom"

// HeightmapRGBA is a four channel texture stored as four tiled fields with
// a shared layout. Channel values are expected in [0, 1].
type HeightmapRGBA struct {
	R, G, B, A *Heightmap
}

// NewRGBA allocates a texture with every channel zero except alpha, which
// starts opaque.
func NewRGBA(shape, tiling geom.Vec2[int], overlap float64) *HeightmapRGBA {
	c := &HeightmapRGBA{
		R: New(shape, tiling, overlap),
		G: New(shape, tiling, overlap),
		B: New(shape, tiling, overlap),
		A: New(shape, tiling, overlap),
	}
	c.A.Fill(1)
	return c
}

// Channels returns the channels in R, G, B, A order.
func (c *HeightmapRGBA) Channels() []*Heightmap {
	return []*Heightmap{c.R, c.G, c.B, c.A}
}

// Shape returns the logical shape shared by all channels.
func (c *HeightmapRGBA) Shape() geom.Vec2[int] {
	return c.R.Shape
}

// SetSto changes the storage layout of every channel.
func (c *HeightmapRGBA) SetSto(shape, tiling geom.Vec2[int], overlap float64) {
	for _, h := range c.Channels() {
		h.SetSto(shape, tiling, overlap)
	}
}

// Clone returns a deep copy.
func (c *HeightmapRGBA) Clone() *HeightmapRGBA {
	return &HeightmapRGBA{R: c.R.Clone(), G: c.G.Clone(), B: c.B.Clone(), A: c.A.Clone()}
}

// ToArrays flattens every channel.
func (c *HeightmapRGBA) ToArrays() [4]*Array {
	return [4]*Array{c.R.ToArray(), c.G.ToArray(), c.B.ToArray(), c.A.ToArray()}
}
