package kernel

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// NoiseType selects the coherent noise basis.
type NoiseType int

const (
	Perlin NoiseType = iota
	PerlinBillow
	PerlinRidged
	Value
)

// NoiseTypes maps the persisted enum labels to noise types.
var NoiseTypes = map[string]int{
	"perlin":        int(Perlin),
	"perlin_billow": int(PerlinBillow),
	"perlin_ridged": int(PerlinRidged),
	"value":         int(Value),
}

// perlinScale brings go-perlin's single-octave output to roughly [-1, 1].
const perlinScale = 1.4

// basis returns a single-octave noise function for typ and seed.
func basis(typ NoiseType, seed uint32) (func(x, y float64) float64, error) {
	switch typ {
	case Perlin, PerlinBillow, PerlinRidged:
		p := perlin.NewPerlin(2, 2, 1, int64(seed))
		raw := func(x, y float64) float64 {
			return math.Max(-1, math.Min(1, perlinScale*p.Noise2D(x, y)))
		}
		switch typ {
		case PerlinBillow:
			return func(x, y float64) float64 { return 2*math.Abs(raw(x, y)) - 1 }, nil
		case PerlinRidged:
			return func(x, y float64) float64 { return 1 - 2*math.Abs(raw(x, y)) }, nil
		}
		return raw, nil
	case Value:
		return func(x, y float64) float64 { return valueNoise(x, y, seed) }, nil
	}
	return nil, fmt.Errorf("unknown noise type %d", int(typ))
}

// valueNoise interpolates hashed lattice values with a smoothstep.
func valueNoise(x, y float64, seed uint32) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	ix, iy := int64(fx), int64(fy)
	u, v := smoothstep(x-fx), smoothstep(y-fy)
	v00 := hash2(ix, iy, seed)
	v10 := hash2(ix+1, iy, seed)
	v01 := hash2(ix, iy+1, seed)
	v11 := hash2(ix+1, iy+1, seed)
	a := v00 + (v10-v00)*u
	b := v01 + (v11-v01)*u
	return 2*(a+(b-a)*v) - 1
}

// Noise fills a with single-octave coherent noise. kw is the wave number
// (features per unit domain) per axis. dx and dy displace the sampling
// point in domain units; envelope multiplies the result. All three may be
// nil.
func Noise(a *hmap.Array, bbox geom.Vec4, typ NoiseType, kw geom.Vec2[float64], seed uint32, dx, dy, envelope *hmap.Array) error {
	fn, err := basis(typ, seed)
	if err != nil {
		return err
	}
	xs, ys := Grid(a.Shape, bbox)
	for j, y := range ys {
		for i, x := range xs {
			px := kw.X * (x + float64(at(dx, i, j, 0)))
			py := kw.Y * (y + float64(at(dy, i, j, 0)))
			a.Set(i, j, float32(fn(px, py))*at(envelope, i, j, 1))
		}
	}
	return nil
}

// FbmParams are the fractal layering parameters.
type FbmParams struct {
	Octaves     int
	Weight      float64
	Persistence float64
	Lacunarity  float64
}

// DefaultFbm returns eight octaves with halving amplitude and doubling
// frequency.
func DefaultFbm() FbmParams {
	return FbmParams{Octaves: 8, Weight: 0.7, Persistence: 0.5, Lacunarity: 2}
}

// Fbm fills a with fractal Brownian motion built from typ. Each octave uses
// its own seed. Weight couples an octave's amplitude to the value of the
// previous one; ctrl, when present, scales the amplitude of every octave
// after the first. The result is normalized by the undamped amplitude sum.
func Fbm(a *hmap.Array, bbox geom.Vec4, typ NoiseType, kw geom.Vec2[float64], seed uint32, p FbmParams, dx, dy, ctrl *hmap.Array) error {
	if p.Octaves < 1 {
		a.Fill(0)
		return nil
	}
	octaves := make([]func(x, y float64) float64, p.Octaves)
	norm := 0.0
	amp := 1.0
	for k := range octaves {
		fn, err := basis(typ, seed+uint32(k))
		if err != nil {
			return err
		}
		octaves[k] = fn
		norm += amp
		amp *= p.Persistence
	}

	xs, ys := Grid(a.Shape, bbox)
	for j, y := range ys {
		for i, x := range xs {
			px := kw.X * (x + float64(at(dx, i, j, 0)))
			py := kw.Y * (y + float64(at(dy, i, j, 0)))
			c := float64(at(ctrl, i, j, 1))
			sum, amp, freq := 0.0, 1.0, 1.0
			for k, fn := range octaves {
				v := fn(px*freq, py*freq)
				if k > 0 {
					v *= c
				}
				sum += v * amp
				amp *= p.Persistence * ((1 - p.Weight) + p.Weight*math.Min(v+1, 2)*0.5)
				freq *= p.Lacunarity
			}
			a.Set(i, j, float32(sum/norm))
		}
	}
	return nil
}

// White fills a with uniform white noise in [0, 1]. Values are a pure
// function of the pixel's domain position and seed.
func White(a *hmap.Array, bbox geom.Vec4, seed uint32) {
	xs, ys := Grid(a.Shape, bbox)
	for j, y := range ys {
		qy := quantize(y)
		for i, x := range xs {
			a.Set(i, j, float32(hash2(quantize(x), qy, seed)))
		}
	}
}

// Constant fills a with v.
func Constant(a *hmap.Array, v float32) {
	a.Fill(v)
}
