package kernel

import (
	"math"
	"math/rand/v2"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// RandomCloud draws n points uniformly inside bbox with values uniform in
// [0, 1). The same seed always yields the same cloud.
func RandomCloud(n int, seed uint32, bbox geom.Vec4) geom.Cloud {
	r := rand.New(rand.NewPCG(uint64(seed), 0x6c6f616d))
	pts := make([]geom.Point, n)
	for k := range pts {
		pts[k] = geom.Point{
			X: bbox.A + r.Float64()*bbox.Width(),
			Y: bbox.C + r.Float64()*bbox.Height(),
			V: r.Float64(),
		}
	}
	return geom.Cloud{Points: pts}
}

// pulse is the cubic falloff used for splats: 1 at the centre, 0 at r.
func pulse(d, r float64) float64 {
	if d >= r {
		return 0
	}
	t := d / r
	return 1 - smoothstep(t)
}

// splatRadius returns a splat radius of at least one pixel.
func splatRadius(a *hmap.Array, bbox geom.Vec4, radius float64) float64 {
	px := math.Max(bbox.Width()/float64(a.Shape.X), bbox.Height()/float64(a.Shape.Y))
	return math.Max(radius, px)
}

// SplatCloud rasterizes the points of c onto a as cubic pulses of the given
// domain radius, keeping the maximum where splats overlap. Pixels outside
// every splat keep their value.
func SplatCloud(a *hmap.Array, bbox geom.Vec4, c geom.Cloud, radius float64) {
	r := splatRadius(a, bbox, radius)
	xs, ys := Grid(a.Shape, bbox)
	for _, p := range c.Points {
		if p.X < bbox.A-r || p.X > bbox.B+r || p.Y < bbox.C-r || p.Y > bbox.D+r {
			continue
		}
		for j, y := range ys {
			if math.Abs(y-p.Y) >= r {
				continue
			}
			for i, x := range xs {
				w := pulse(math.Hypot(x-p.X, y-p.Y), r)
				if w <= 0 {
					continue
				}
				v := float32(p.V * w)
				if v > a.At(i, j) {
					a.Set(i, j, v)
				}
			}
		}
	}
}

// SplatPath rasterizes the segments of p onto a. Values are interpolated
// along each segment and fall off over the given domain width; overlapping
// contributions keep the maximum.
func SplatPath(a *hmap.Array, bbox geom.Vec4, p geom.Path, width float64) {
	r := splatRadius(a, bbox, width)
	xs, ys := Grid(a.Shape, bbox)
	for s := 0; s < p.Segments(); s++ {
		p0, p1 := p.Segment(s)
		ex, ey := p1.X-p0.X, p1.Y-p0.Y
		l2 := ex*ex + ey*ey
		for j, y := range ys {
			for i, x := range xs {
				t := 0.0
				if l2 > 0 {
					t = math.Max(0, math.Min(1, ((x-p0.X)*ex+(y-p0.Y)*ey)/l2))
				}
				d := math.Hypot(x-(p0.X+t*ex), y-(p0.Y+t*ey))
				w := pulse(d, r)
				if w <= 0 {
					continue
				}
				v := float32((p0.V + t*(p1.V-p0.V)) * w)
				if v > a.At(i, j) {
					a.Set(i, j, v)
				}
			}
		}
	}
}
