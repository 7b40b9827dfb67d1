// Package sdfx builds 2D signed distance fields with the
// github.com/deadsy/sdfx CAD library and rasterizes them into heightmap
// arrays. Shapes are expressed in domain units, so a circle of radius 0.25
// centred on (0.5, 0.5) touches the middle of each field edge.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Kind selects the primitive.
type Kind int

const (
	Circle Kind = iota
	Box
	Polygon
)

// Kinds maps the persisted enum labels to primitives.
var Kinds = map[string]int{
	"circle":  int(Circle),
	"box":     int(Box),
	"polygon": int(Polygon),
}

// Params describes one primitive.
type Params struct {
	Kind   Kind
	Center geom.Vec2[float64]
	// Size is the full box extent, or the circle and polygon radius in X.
	Size geom.Vec2[float64]
	// Sides is the vertex count of a regular polygon.
	Sides int
	// Angle rotates the shape about its centre, in degrees.
	Angle float64
	// Round rounds box corners.
	Round float64
	// Hole, when positive, cuts a concentric circle of that radius.
	Hole float64
}

// Build returns the signed distance field described by p.
func Build(p Params) (sdf.SDF2, error) {
	var s sdf.SDF2
	var err error
	switch p.Kind {
	case Circle:
		s, err = sdf.Circle2D(p.Size.X)
	case Box:
		s = sdf.Box2D(v2.Vec{X: p.Size.X, Y: p.Size.Y}, p.Round)
	case Polygon:
		s, err = regularPolygon(p.Sides, p.Size.X)
	default:
		return nil, fmt.Errorf("sdfx: unknown shape kind %d", int(p.Kind))
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx: %w", err)
	}

	if p.Hole > 0 {
		hole, err := sdf.Circle2D(p.Hole)
		if err != nil {
			return nil, fmt.Errorf("sdfx: hole: %w", err)
		}
		s = sdf.Difference2D(s, hole)
	}

	m := sdf.Translate2d(v2.Vec{X: p.Center.X, Y: p.Center.Y}).Mul(sdf.Rotate2d(p.Angle * math.Pi / 180))
	return sdf.Transform2D(s, m), nil
}

func regularPolygon(sides int, radius float64) (sdf.SDF2, error) {
	if sides < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 sides, got %d", sides)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("polygon radius %g must be positive", radius)
	}
	vs := make([]v2.Vec, sides)
	for k := range vs {
		a := 2 * math.Pi * float64(k) / float64(sides)
		vs[k] = v2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return sdf.Polygon2D(vs)
}

// Union merges shapes.
func Union(shapes ...sdf.SDF2) sdf.SDF2 {
	return sdf.Union2D(shapes...)
}

// Rasterize evaluates s at every pixel of a covering bbox. The value is 1
// at depth falloff or more inside the shape, 0 outside, with a smoothstep
// ramp between. A non-positive falloff gives a hard edge.
func Rasterize(a *hmap.Array, bbox geom.Vec4, s sdf.SDF2, falloff float64) {
	for j := 0; j < a.Shape.Y; j++ {
		y := hmap.Coord(j, a.Shape.Y, bbox.C, bbox.D)
		for i := 0; i < a.Shape.X; i++ {
			x := hmap.Coord(i, a.Shape.X, bbox.A, bbox.B)
			d := s.Evaluate(v2.Vec{X: x, Y: y})
			a.Set(i, j, float32(profile(d, falloff)))
		}
	}
}

// Distance writes the raw signed distance, negative inside.
func Distance(a *hmap.Array, bbox geom.Vec4, s sdf.SDF2) {
	for j := 0; j < a.Shape.Y; j++ {
		y := hmap.Coord(j, a.Shape.Y, bbox.C, bbox.D)
		for i := 0; i < a.Shape.X; i++ {
			x := hmap.Coord(i, a.Shape.X, bbox.A, bbox.B)
			a.Set(i, j, float32(s.Evaluate(v2.Vec{X: x, Y: y})))
		}
	}
}

func profile(d, falloff float64) float64 {
	if falloff <= 0 {
		if d <= 0 {
			return 1
		}
		return 0
	}
	t := math.Max(0, math.Min(1, -d/falloff))
	return t * t * (3 - 2*t)
}
