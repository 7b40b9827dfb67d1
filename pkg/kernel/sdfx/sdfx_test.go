package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/deadsy/sdfx/sdf"
)

func TestCircle(t *testing.T) {
	s, err := Build(Params{Kind: Circle, Center: geom.V2(0.5, 0.5), Size: geom.V2(0.25, 0.25)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	a := hmap.NewArray(geom.V2(32, 32))
	Rasterize(a, geom.UnitSquare, s, 0)
	if got := a.At(16, 16); got != 1 {
		t.Errorf("centre = %g, want 1", got)
	}
	if got := a.At(0, 0); got != 0 {
		t.Errorf("corner = %g, want 0", got)
	}
	// (0.5 + 0.2, 0.5) is inside, (0.5 + 0.3, 0.5) outside
	if a.At(22, 16) != 1 || a.At(26, 16) != 0 {
		t.Errorf("edge samples = %g %g", a.At(22, 16), a.At(26, 16))
	}
}

func TestBoxDistance(t *testing.T) {
	s, err := Build(Params{Kind: Box, Center: geom.V2(0.5, 0.5), Size: geom.V2(0.5, 0.25)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	a := hmap.NewArray(geom.V2(16, 16))
	Distance(a, geom.UnitSquare, s)
	// pixel 8 sits on the centre; the nearest edge is 0.125 away in y
	if got := a.At(8, 8); math.Abs(float64(got)+0.125) > 1e-4 {
		t.Errorf("distance at centre = %g, want -0.125", got)
	}
	if got := a.At(0, 8); got <= 0 {
		t.Errorf("distance outside = %g, want positive", got)
	}
}

func TestRotatedBox(t *testing.T) {
	s, err := Build(Params{Kind: Box, Center: geom.V2(0.5, 0.5), Size: geom.V2(0.8, 0.1), Angle: 90})
	if err != nil {
		t.Fatal(err)
	}
	a := hmap.NewArray(geom.V2(16, 16))
	Rasterize(a, geom.UnitSquare, s, 0)
	// after a quarter turn the long side runs along y
	if a.At(8, 3) != 1 || a.At(3, 8) != 0 {
		t.Errorf("rotated samples = %g %g", a.At(8, 3), a.At(3, 8))
	}
}

func TestPolygon(t *testing.T) {
	tests := []struct {
		name    string
		sides   int
		radius  float64
		wantErr bool
	}{
		{"triangle", 3, 0.3, false},
		{"hexagon", 6, 0.3, false},
		{"degenerate", 2, 0.3, true},
		{"zero radius", 5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(Params{Kind: Polygon, Center: geom.V2(0.5, 0.5), Size: geom.V2(tt.radius, 0.0), Sides: tt.sides})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			a := hmap.NewArray(geom.V2(16, 16))
			Rasterize(a, geom.UnitSquare, s, 0)
			if a.At(8, 8) != 1 || a.At(0, 0) != 0 {
				t.Errorf("samples = %g %g", a.At(8, 8), a.At(0, 0))
			}
		})
	}
}

func TestHoleAndFalloff(t *testing.T) {
	s, err := Build(Params{Kind: Circle, Center: geom.V2(0.5, 0.5), Size: geom.V2(0.4, 0.4), Hole: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	a := hmap.NewArray(geom.V2(32, 32))
	Rasterize(a, geom.UnitSquare, s, 0.1)
	if got := a.At(16, 16); got != 0 {
		t.Errorf("hole centre = %g, want 0", got)
	}
	// 0.25 from the centre: 0.15 inside the rim, deeper than the falloff
	if got := a.At(24, 16); got != 1 {
		t.Errorf("ring = %g, want 1", got)
	}
	// 0.34 from the centre: 0.06 inside, on the ramp
	if v := sample(s, 0.84, 0.5, 0.1); v <= 0 || v >= 1 {
		t.Errorf("ramp value = %g, want strictly between 0 and 1", v)
	}
}

// sample rasterizes s at the single domain point (x, y).
func sample(s sdf.SDF2, x, y, falloff float64) float32 {
	a := hmap.NewArray(geom.V2(1, 1))
	Rasterize(a, geom.Vec4{A: x, B: x + 1, C: y, D: y + 1}, s, falloff)
	return a.At(0, 0)
}

func TestUnion(t *testing.T) {
	a, err := Build(Params{Kind: Circle, Center: geom.V2(0.25, 0.5), Size: geom.V2(0.1, 0.1)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(Params{Kind: Circle, Center: geom.V2(0.75, 0.5), Size: geom.V2(0.1, 0.1)})
	if err != nil {
		t.Fatal(err)
	}
	out := hmap.NewArray(geom.V2(16, 16))
	Rasterize(out, geom.UnitSquare, Union(a, b), 0)
	if out.At(4, 8) != 1 || out.At(12, 8) != 1 || out.At(8, 8) != 0 {
		t.Errorf("union samples = %g %g %g", out.At(4, 8), out.At(12, 8), out.At(8, 8))
	}
}

func TestUnknownKind(t *testing.T) {
	if _, err := Build(Params{Kind: Kind(9)}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
