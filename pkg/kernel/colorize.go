package kernel

import "github.com/chazu/loam/pkg/hmap"

// lutSize is the resolution of the colour lookup table.
const lutSize = 256

// ColorFunc maps a normalized position in [0, 1] to an RGBA colour.
type ColorFunc func(t float64) [4]float64

// Colorize maps every value of in through lut and writes the channels into
// rgba (R, G, B, A). Values are normalized from [vmin, vmax]. When alpha is
// not nil it replaces the lookup's alpha channel.
func Colorize(rgba [4]*hmap.Array, in *hmap.Array, vmin, vmax float32, lut ColorFunc, alpha *hmap.Array) {
	var table [lutSize][4]float32
	for k := range table {
		c := lut(float64(k) / (lutSize - 1))
		for ch := range c {
			table[k][ch] = float32(c[ch])
		}
	}
	span := vmax - vmin
	for n, v := range in.Vector {
		t := float32(0)
		if span != 0 {
			t = clamp01((v - vmin) / span)
		}
		c := table[int(t*(lutSize-1)+0.5)]
		for ch := 0; ch < 3; ch++ {
			rgba[ch].Vector[n] = c[ch]
		}
		if alpha != nil {
			rgba[3].Vector[n] = clamp01(alpha.Vector[n])
		} else {
			rgba[3].Vector[n] = c[3]
		}
	}
}

// Solid fills the channels with one colour.
func Solid(rgba [4]*hmap.Array, c [4]float64, alpha *hmap.Array) {
	for ch := 0; ch < 4; ch++ {
		rgba[ch].Fill(float32(c[ch]))
	}
	if alpha != nil {
		for n, v := range alpha.Vector {
			rgba[3].Vector[n] = clamp01(v)
		}
	}
}
