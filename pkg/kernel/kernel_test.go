package kernel

import (
	"math"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// --- Mesh helper method tests ---

func TestMeshCounts(t *testing.T) {
	tests := []struct {
		name      string
		vertices  []float32
		indices   []uint32
		wantVerts int
		wantTris  int
	}{
		{"empty", nil, nil, 0, 0},
		{"one triangle", []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []uint32{0, 1, 2}, 3, 1},
		{"quad", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, []uint32{0, 1, 2, 2, 3, 0}, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices, Indices: tt.indices}
			if got := m.VertexCount(); got != tt.wantVerts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.wantVerts)
			}
			if got := m.TriangleCount(); got != tt.wantTris {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.wantTris)
			}
			if got := m.IsEmpty(); got != (tt.wantVerts == 0) {
				t.Errorf("IsEmpty() = %v", got)
			}
		})
	}
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{Vertices: []float32{1, 2, 3, -1, 5, 0, 4, -2, 1}}
	lo, hi := m.Bounds()
	if lo != [3]float32{-1, -2, 0} || hi != [3]float32{4, 5, 3} {
		t.Errorf("Bounds() = %v %v", lo, hi)
	}
}

// --- Noise ---

// window is the bbox of pixels [x0, x0+n) x [y0, y0+n) of a size x size
// field, matching how tiles are laid out.
func window(x0, y0, n, size int) geom.Vec4 {
	s := float64(size)
	return geom.Vec4{A: float64(x0) / s, B: float64(x0+n) / s, C: float64(y0) / s, D: float64(y0+n) / s}
}

func maxDiffWindow(full, sub *hmap.Array, x0, y0 int) float64 {
	var d float64
	for j := 0; j < sub.Shape.Y; j++ {
		for i := 0; i < sub.Shape.X; i++ {
			d = math.Max(d, math.Abs(float64(full.At(x0+i, y0+j)-sub.At(i, j))))
		}
	}
	return d
}

func TestNoiseIsPositionPure(t *testing.T) {
	kw := geom.V2(4.0, 4.0)
	fill := map[string]func(a *hmap.Array, bbox geom.Vec4) error{
		"perlin": func(a *hmap.Array, bbox geom.Vec4) error { return Noise(a, bbox, Perlin, kw, 7, nil, nil, nil) },
		"ridged": func(a *hmap.Array, bbox geom.Vec4) error { return Noise(a, bbox, PerlinRidged, kw, 7, nil, nil, nil) },
		"value":  func(a *hmap.Array, bbox geom.Vec4) error { return Noise(a, bbox, Value, kw, 7, nil, nil, nil) },
		"fbm": func(a *hmap.Array, bbox geom.Vec4) error {
			return Fbm(a, bbox, Perlin, kw, 7, DefaultFbm(), nil, nil, nil)
		},
		"white": func(a *hmap.Array, bbox geom.Vec4) error { White(a, bbox, 7); return nil },
	}
	for name, fn := range fill {
		t.Run(name, func(t *testing.T) {
			full := hmap.NewArray(geom.V2(64, 64))
			if err := fn(full, geom.UnitSquare); err != nil {
				t.Fatal(err)
			}
			sub := hmap.NewArray(geom.V2(32, 32))
			if err := fn(sub, window(16, 8, 32, 64)); err != nil {
				t.Fatal(err)
			}
			if d := maxDiffWindow(full, sub, 16, 8); d > 1e-5 {
				t.Errorf("window differs from full field by %g", d)
			}
		})
	}
}

func TestNoiseRange(t *testing.T) {
	for _, typ := range []NoiseType{Perlin, PerlinBillow, PerlinRidged, Value} {
		a := hmap.NewArray(geom.V2(64, 64))
		if err := Noise(a, geom.UnitSquare, typ, geom.V2(8.0, 8.0), 3, nil, nil, nil); err != nil {
			t.Fatal(err)
		}
		if a.Min() < -1 || a.Max() > 1 {
			t.Errorf("type %d range [%g, %g] outside [-1, 1]", typ, a.Min(), a.Max())
		}
		if a.Max()-a.Min() < 0.1 {
			t.Errorf("type %d is nearly flat: [%g, %g]", typ, a.Min(), a.Max())
		}
	}
}

func TestNoiseUnknownType(t *testing.T) {
	a := hmap.NewArray(geom.V2(4, 4))
	if err := Noise(a, geom.UnitSquare, NoiseType(42), geom.V2(1.0, 1.0), 1, nil, nil, nil); err == nil {
		t.Error("expected error for unknown noise type")
	}
}

func TestNoiseEnvelope(t *testing.T) {
	env := hmap.NewArray(geom.V2(16, 16))
	a := hmap.NewArrayFilled(geom.V2(16, 16), 5)
	if err := Noise(a, geom.UnitSquare, Perlin, geom.V2(3.0, 3.0), 1, nil, nil, env); err != nil {
		t.Fatal(err)
	}
	if a.Min() != 0 || a.Max() != 0 {
		t.Errorf("zero envelope should zero the output, got [%g, %g]", a.Min(), a.Max())
	}
}

func TestFbm(t *testing.T) {
	a := hmap.NewArray(geom.V2(64, 64))
	if err := Fbm(a, geom.UnitSquare, Perlin, geom.V2(2.0, 2.0), 1, DefaultFbm(), nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if a.Min() < -1 || a.Max() > 1 {
		t.Errorf("fbm range [%g, %g] outside [-1, 1]", a.Min(), a.Max())
	}

	zero := hmap.NewArrayFilled(geom.V2(8, 8), 3)
	if err := Fbm(zero, geom.UnitSquare, Perlin, geom.V2(2.0, 2.0), 1, FbmParams{}, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if zero.Max() != 0 {
		t.Error("zero octaves should produce a zero field")
	}
}

func TestWhite(t *testing.T) {
	a := hmap.NewArray(geom.V2(32, 32))
	b := hmap.NewArray(geom.V2(32, 32))
	White(a, geom.UnitSquare, 1)
	White(b, geom.UnitSquare, 2)
	if a.Min() < 0 || a.Max() > 1 {
		t.Errorf("white range [%g, %g] outside [0, 1]", a.Min(), a.Max())
	}
	same := 0
	for k := range a.Vector {
		if a.Vector[k] == b.Vector[k] {
			same++
		}
	}
	if same > 2 {
		t.Errorf("different seeds share %d values", same)
	}
}

// --- Filters ---

func TestSmoothCpulse(t *testing.T) {
	c := hmap.NewArrayFilled(geom.V2(16, 16), 0.25)
	SmoothCpulse(c, 3)
	if math.Abs(float64(c.Min()-0.25)) > 1e-6 || math.Abs(float64(c.Max()-0.25)) > 1e-6 {
		t.Errorf("constant field changed: [%g, %g]", c.Min(), c.Max())
	}

	n := hmap.NewArray(geom.V2(32, 32))
	White(n, geom.UnitSquare, 9)
	before := n.Max() - n.Min()
	SmoothCpulse(n, 2)
	if after := n.Max() - n.Min(); after >= before {
		t.Errorf("smoothing did not reduce the range: %g -> %g", before, after)
	}

	id := hmap.NewArray(geom.V2(8, 8))
	White(id, geom.UnitSquare, 1)
	ref := id.Clone()
	SmoothCpulse(id, 0)
	if maxDiffWindow(ref, id, 0, 0) != 0 {
		t.Error("radius 0 should leave the array unchanged")
	}
}

func TestGainValue(t *testing.T) {
	tests := []struct {
		v, gain, want float32
	}{
		{0, 2, 0},
		{1, 2, 1},
		{0.5, 4, 0.5},
		{0.25, 1, 0.25},
		{0.25, 2, 0.125},
		{-1, 2, 0},
	}
	for _, tt := range tests {
		if got := GainValue(tt.v, tt.gain); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("GainValue(%g, %g) = %g, want %g", tt.v, tt.gain, got, tt.want)
		}
	}
}

func TestClampSmoothValue(t *testing.T) {
	if got := ClampSmoothValue(0.5, 0, 1, 0.1); got != 0.5 {
		t.Errorf("interior value changed: %g", got)
	}
	if got := ClampSmoothValue(3, 0, 1, 0.1); got != 1 {
		t.Errorf("far above = %g, want 1", got)
	}
	if got := ClampSmoothValue(-3, 0, 1, 0.1); got != 0 {
		t.Errorf("far below = %g, want 0", got)
	}
	if got := ClampSmoothValue(1, 0, 1, 0.2); got >= 1 {
		t.Errorf("value at the bound should be rounded below it, got %g", got)
	}
}

// --- Blend ---

func TestBlend(t *testing.T) {
	shape := geom.V2(4, 4)
	a := hmap.NewArrayFilled(shape, 0.25)
	b := hmap.NewArrayFilled(shape, 0.5)
	tests := []struct {
		name string
		p    BlendParams
		want float32
	}{
		{"add", BlendParams{Method: BlendAdd, W1: 1, W2: 1}, 0.75},
		{"weighted add", BlendParams{Method: BlendAdd, W1: 1, W2: 0}, 0.25},
		{"maximum", BlendParams{Method: BlendMaximum, W1: 1, W2: 1}, 0.5},
		{"minimum", BlendParams{Method: BlendMinimum, W1: 1, W2: 1}, 0.25},
		{"multiply", BlendParams{Method: BlendMultiply, W1: 1, W2: 1}, 0.125},
		{"substract", BlendParams{Method: BlendSubstract, W1: 1, W2: 1}, -0.25},
		{"exclusion", BlendParams{Method: BlendExclusion, W1: 1, W2: 1}, 0.5},
		{"gradients flat", BlendParams{Method: BlendGradients, W1: 1, W2: 1, Radius: 1}, 0.375},
		{"minimum smooth", BlendParams{Method: BlendMinimumSmooth, K: 0.1, W1: 1, W2: 1}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := hmap.NewArray(shape)
			if err := Blend(out, a, b, tt.p); err != nil {
				t.Fatal(err)
			}
			for _, v := range out.Vector {
				if math.Abs(float64(v-tt.want)) > 1e-6 {
					t.Fatalf("value = %g, want %g", v, tt.want)
				}
			}
		})
	}
}

func TestBlendErrors(t *testing.T) {
	a := hmap.NewArray(geom.V2(4, 4))
	if err := Blend(a, a, hmap.NewArray(geom.V2(2, 2)), BlendParams{}); err == nil {
		t.Error("expected shape mismatch error")
	}
	if err := Blend(a, a, a, BlendParams{Method: 99}); err == nil {
		t.Error("expected unknown method error")
	}
}

// --- Erosion, warp, colour ---

func TestThermal(t *testing.T) {
	z := hmap.NewArray(geom.V2(16, 16))
	z.Set(8, 8, 10)
	sum := func(a *hmap.Array) (s float64) {
		for _, v := range a.Vector {
			s += float64(v)
		}
		return s
	}
	before := sum(z)
	Thermal(z, 0.1, 20, nil)
	if z.At(8, 8) >= 10 {
		t.Error("peak was not eroded")
	}
	if z.At(9, 8) <= 0 {
		t.Error("material did not reach the neighbour")
	}
	if d := math.Abs(sum(z) - before); d > 1e-3 {
		t.Errorf("mass changed by %g", d)
	}

	flat := hmap.NewArrayFilled(geom.V2(8, 8), 1)
	Thermal(flat, 0.1, 5, nil)
	if flat.Min() != 1 || flat.Max() != 1 {
		t.Error("flat field should be stable")
	}
}

func TestThermalBedrock(t *testing.T) {
	z := hmap.NewArray(geom.V2(8, 8))
	z.Set(4, 4, 2)
	bed := hmap.NewArrayFilled(geom.V2(8, 8), 0)
	bed.Set(4, 4, 2)
	Thermal(z, 0.01, 10, bed)
	if z.At(4, 4) < 2 {
		t.Errorf("cell eroded below bedrock: %g", z.At(4, 4))
	}
}

func TestWarp(t *testing.T) {
	in := hmap.NewArray(geom.V2(16, 16))
	for j := 0; j < 16; j++ {
		for i := 0; i < 16; i++ {
			in.Set(i, j, float32(i))
		}
	}
	out := hmap.NewArray(in.Shape)
	if err := Warp(out, in, nil, nil, geom.UnitSquare, 1); err != nil {
		t.Fatal(err)
	}
	if maxDiffWindow(in, out, 0, 0) != 0 {
		t.Error("zero displacement should be the identity")
	}

	dx := hmap.NewArrayFilled(in.Shape, 2.0/16)
	if err := Warp(out, in, dx, nil, geom.UnitSquare, 1); err != nil {
		t.Fatal(err)
	}
	if got := out.At(3, 5); math.Abs(float64(got-5)) > 1e-5 {
		t.Errorf("shifted sample = %g, want 5", got)
	}
	if got := out.At(15, 0); got != 15 {
		t.Errorf("border sample = %g, want clamped 15", got)
	}
}

func TestColorize(t *testing.T) {
	shape := geom.V2(2, 1)
	in := hmap.NewArray(shape)
	in.Vector = []float32{-1, 3}
	var rgba [4]*hmap.Array
	for k := range rgba {
		rgba[k] = hmap.NewArray(shape)
	}
	gray := func(t float64) [4]float64 { return [4]float64{t, t, t, 1} }
	Colorize(rgba, in, -1, 3, gray, nil)
	if rgba[0].Vector[0] != 0 || rgba[1].Vector[1] != 1 || rgba[3].Vector[0] != 1 {
		t.Errorf("colorize = %v %v %v", rgba[0].Vector, rgba[1].Vector, rgba[3].Vector)
	}

	Solid(rgba, [4]float64{0.2, 0.4, 0.6, 1}, hmap.NewArrayFilled(shape, 0.5))
	if rgba[2].Vector[1] != float32(0.6) || rgba[3].Vector[0] != 0.5 {
		t.Errorf("solid = %v alpha %v", rgba[2].Vector, rgba[3].Vector)
	}
}

func TestColorizeNaN(t *testing.T) {
	shape := geom.V2(3, 1)
	nan := float32(math.NaN())
	in := hmap.NewArray(shape)
	in.Vector = []float32{0, nan, 1}
	var rgba [4]*hmap.Array
	for k := range rgba {
		rgba[k] = hmap.NewArray(shape)
	}
	gray := func(t float64) [4]float64 { return [4]float64{t, t, t, 1} }
	alpha := hmap.NewArray(shape)
	alpha.Vector = []float32{1, nan, 1}

	Colorize(rgba, in, 0, 1, gray, alpha)
	if got := rgba[0].Vector; got[0] != 0 || got[1] != 0 || got[2] != 1 {
		t.Errorf("red = %v, want NaN mapped to the low end", got)
	}
	if rgba[3].Vector[1] != 0 {
		t.Errorf("alpha of a NaN pixel = %g, want 0", rgba[3].Vector[1])
	}

	// a NaN range must not panic either
	Colorize(rgba, in, nan, nan, gray, nil)
}

// --- Clouds and paths ---

func TestRandomCloud(t *testing.T) {
	bbox := geom.Vec4{A: 0.2, B: 0.4, C: 0.5, D: 1}
	a := RandomCloud(50, 3, bbox)
	b := RandomCloud(50, 3, bbox)
	if a.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", a.Len())
	}
	for k, p := range a.Points {
		if p != b.Points[k] {
			t.Fatal("same seed produced different clouds")
		}
		if !bbox.Contains(p.X, p.Y) || p.V < 0 || p.V >= 1 {
			t.Fatalf("point %v outside bounds", p)
		}
	}
}

func TestSplatCloud(t *testing.T) {
	a := hmap.NewArray(geom.V2(32, 32))
	c := geom.Cloud{Points: []geom.Point{{X: 0.5, Y: 0.5, V: 1}}}
	SplatCloud(a, geom.UnitSquare, c, 0.1)
	if got := a.At(16, 16); got != 1 {
		t.Errorf("centre = %g, want 1", got)
	}
	if got := a.At(0, 0); got != 0 {
		t.Errorf("far corner = %g, want 0", got)
	}

	full := hmap.NewArray(geom.V2(64, 64))
	SplatCloud(full, geom.UnitSquare, c, 0.1)
	sub := hmap.NewArray(geom.V2(32, 32))
	SplatCloud(sub, window(20, 20, 32, 64), c, 0.1)
	if d := maxDiffWindow(full, sub, 20, 20); d > 1e-6 {
		t.Errorf("splat window differs by %g", d)
	}
}

func TestSplatPath(t *testing.T) {
	a := hmap.NewArray(geom.V2(32, 32))
	p := geom.Path{Points: []geom.Point{{X: 0, Y: 0.5, V: 0}, {X: 1, Y: 0.5, V: 1}}}
	SplatPath(a, geom.UnitSquare, p, 0.05)
	if got := a.At(16, 16); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("on-path value = %g, want 0.5", got)
	}
	if got := a.At(16, 0); got != 0 {
		t.Errorf("off-path value = %g, want 0", got)
	}
}
