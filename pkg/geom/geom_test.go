package geom

import (
	"math"
	"testing"
)

func TestCloudBounds(t *testing.T) {
	c := Cloud{Points: []Point{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.1}, {X: 0.4, Y: 0.9}}}
	b := c.Bounds()
	want := Vec4{A: 0.2, B: 0.8, C: 0.1, D: 0.9}
	if b != want {
		t.Errorf("Bounds() = %+v, want %+v", b, want)
	}
	if (Cloud{}).Bounds() != (Vec4{}) {
		t.Error("empty cloud should have zero bounds")
	}
}

func TestCloudRemapValues(t *testing.T) {
	c := Cloud{Points: []Point{{V: 2}, {V: 4}, {V: 6}}}
	c.RemapValues(0, 1)
	for i, want := range []float64{0, 0.5, 1} {
		if math.Abs(c.Points[i].V-want) > 1e-12 {
			t.Errorf("point %d value = %v, want %v", i, c.Points[i].V, want)
		}
	}

	flat := Cloud{Points: []Point{{V: 3}, {V: 3}}}
	flat.RemapValues(-1, 1)
	if flat.Points[0].V != -1 {
		t.Errorf("flat cloud remapped to %v, want -1", flat.Points[0].V)
	}
}

func TestPathSegments(t *testing.T) {
	tests := []struct {
		name   string
		path   Path
		want   int
		length float64
	}{
		{"empty", Path{}, 0, 0},
		{"single", Path{Points: []Point{{}}}, 0, 0},
		{"open square", Path{Points: []Point{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}}, 3, 3},
		{"closed square", Path{Points: []Point{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, Closed: true}, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.Segments(); got != tt.want {
				t.Errorf("Segments() = %d, want %d", got, tt.want)
			}
			if got := tt.path.Length(); math.Abs(got-tt.length) > 1e-12 {
				t.Errorf("Length() = %v, want %v", got, tt.length)
			}
		})
	}
}

func TestVec4(t *testing.T) {
	b := Vec4{A: 0.25, B: 0.75, C: 0, D: 0.5}
	if b.Width() != 0.5 || b.Height() != 0.5 {
		t.Errorf("Width/Height = %v/%v, want 0.5/0.5", b.Width(), b.Height())
	}
	if !b.Contains(0.25, 0) {
		t.Error("lower corner should be contained")
	}
	if b.Contains(0.75, 0.25) {
		t.Error("upper x bound should be excluded")
	}
	if V2(3, 4).Area() != 12 {
		t.Error("V2(3,4).Area() != 12")
	}
}
