// Package geom holds the small geometric value types shared by the raster
// model, the attribute system and the numeric kernels: 2D vectors, bounding
// boxes, point clouds and polylines.
package geom

import "math"

// Number is the set of element types a Vec2 may carry.
type Number interface {
	~int | ~float32 | ~float64
}

// Vec2 is a pair of values. Integer vectors describe raster shapes and
// tilings, float vectors describe wavenumbers and ranges.
type Vec2[T Number] struct {
	X T `json:"x" yaml:"x"`
	Y T `json:"y" yaml:"y"`
}

// V2 is shorthand for building a Vec2.
func V2[T Number](x, y T) Vec2[T] {
	return Vec2[T]{X: x, Y: y}
}

// Area returns X*Y.
func (v Vec2[T]) Area() T {
	return v.X * v.Y
}

// Vec4 is a bounding box in normalized domain coordinates:
// A = xmin, B = xmax, C = ymin, D = ymax.
type Vec4 struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
}

// UnitSquare is the full logical domain [0,1]x[0,1].
var UnitSquare = Vec4{A: 0, B: 1, C: 0, D: 1}

// Width returns the extent along x.
func (b Vec4) Width() float64 { return b.B - b.A }

// Height returns the extent along y.
func (b Vec4) Height() float64 { return b.D - b.C }

// Contains reports whether (x, y) lies inside the half-open box.
func (b Vec4) Contains(x, y float64) bool {
	return x >= b.A && x < b.B && y >= b.C && y < b.D
}

// Point is a 2D position carrying a scalar value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	V float64 `json:"v"`
}

// Dist returns the euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cloud is an unordered set of valued points.
type Cloud struct {
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (c Cloud) Len() int { return len(c.Points) }

// Bounds returns the bounding box of the cloud. An empty cloud yields the
// zero box.
func (c Cloud) Bounds() Vec4 {
	if len(c.Points) == 0 {
		return Vec4{}
	}
	b := Vec4{A: math.Inf(1), B: math.Inf(-1), C: math.Inf(1), D: math.Inf(-1)}
	for _, p := range c.Points {
		b.A = math.Min(b.A, p.X)
		b.B = math.Max(b.B, p.X)
		b.C = math.Min(b.C, p.Y)
		b.D = math.Max(b.D, p.Y)
	}
	return b
}

// RemapValues rescales point values linearly into [vmin, vmax].
func (c *Cloud) RemapValues(vmin, vmax float64) {
	if len(c.Points) == 0 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range c.Points {
		lo = math.Min(lo, p.V)
		hi = math.Max(hi, p.V)
	}
	for i := range c.Points {
		if hi == lo {
			c.Points[i].V = vmin
			continue
		}
		c.Points[i].V = vmin + (c.Points[i].V-lo)/(hi-lo)*(vmax-vmin)
	}
}

// Path is an ordered polyline of valued points, optionally closed.
type Path struct {
	Points []Point `json:"points"`
	Closed bool    `json:"closed"`
}

// Len returns the number of vertices.
func (p Path) Len() int { return len(p.Points) }

// Segments returns the number of line segments in the polyline.
func (p Path) Segments() int {
	n := len(p.Points)
	switch {
	case n < 2:
		return 0
	case p.Closed:
		return n
	default:
		return n - 1
	}
}

// Segment returns the endpoints of segment i.
func (p Path) Segment(i int) (Point, Point) {
	return p.Points[i], p.Points[(i+1)%len(p.Points)]
}

// Length returns the total arc length of the polyline.
func (p Path) Length() float64 {
	var l float64
	for i := 0; i < p.Segments(); i++ {
		a, b := p.Segment(i)
		l += a.Dist(b)
	}
	return l
}
