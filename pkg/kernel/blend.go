package kernel

import (
	"fmt"

	"github.com/chazu/loam/pkg/hmap"
)

// BlendMethod selects how two fields are combined.
type BlendMethod int

const (
	BlendAdd BlendMethod = iota
	BlendExclusion
	BlendGradients
	BlendMaximum
	BlendMaximumSmooth
	BlendMinimum
	BlendMinimumSmooth
	BlendMultiply
	BlendMultiplyAdd
	BlendNegate
	BlendOverlay
	BlendSoft
	BlendSubstract
)

// BlendMethods maps the persisted enum labels to blend methods.
var BlendMethods = map[string]int{
	"add":            int(BlendAdd),
	"exclusion":      int(BlendExclusion),
	"gradients":      int(BlendGradients),
	"maximum":        int(BlendMaximum),
	"maximum_smooth": int(BlendMaximumSmooth),
	"minimum":        int(BlendMinimum),
	"minimum_smooth": int(BlendMinimumSmooth),
	"multiply":       int(BlendMultiply),
	"multiply_add":   int(BlendMultiplyAdd),
	"negate":         int(BlendNegate),
	"overlay":        int(BlendOverlay),
	"soft":           int(BlendSoft),
	"substract":      int(BlendSubstract),
}

// BlendParams carries the method and its tuning values.
type BlendParams struct {
	Method BlendMethod
	// K is the smoothing width of the smooth min/max methods.
	K float32
	// Radius is the pixel radius used by the gradients method.
	Radius int
	// W1 and W2 scale the two inputs before blending.
	W1, W2 float32
}

// Blend writes the combination of a and b into out. All three arrays must
// share one shape; out may alias a or b.
func Blend(out, a, b *hmap.Array, p BlendParams) error {
	if a.Shape != out.Shape || b.Shape != out.Shape {
		return fmt.Errorf("blend: shape mismatch %v, %v -> %v", a.Shape, b.Shape, out.Shape)
	}

	if p.Method == BlendGradients {
		ga, gb := Gradient(a), Gradient(b)
		SmoothCpulse(ga, p.Radius)
		SmoothCpulse(gb, p.Radius)
		for n := range out.Vector {
			u, v := p.W1*a.Vector[n], p.W2*b.Vector[n]
			s := ga.Vector[n] + gb.Vector[n]
			if s == 0 {
				out.Vector[n] = 0.5 * (u + v)
				continue
			}
			out.Vector[n] = (ga.Vector[n]*u + gb.Vector[n]*v) / s
		}
		return nil
	}

	fn, err := blendFunc(p.Method, p.K)
	if err != nil {
		return err
	}
	for n := range out.Vector {
		out.Vector[n] = fn(p.W1*a.Vector[n], p.W2*b.Vector[n])
	}
	return nil
}

func blendFunc(m BlendMethod, k float32) (func(u, v float32) float32, error) {
	switch m {
	case BlendAdd:
		return func(u, v float32) float32 { return u + v }, nil
	case BlendExclusion:
		return func(u, v float32) float32 { return u + v - 2*u*v }, nil
	case BlendMaximum:
		return func(u, v float32) float32 { return max(u, v) }, nil
	case BlendMaximumSmooth:
		return func(u, v float32) float32 { return maxSmooth(u, v, k) }, nil
	case BlendMinimum:
		return func(u, v float32) float32 { return min(u, v) }, nil
	case BlendMinimumSmooth:
		return func(u, v float32) float32 { return minSmooth(u, v, k) }, nil
	case BlendMultiply:
		return func(u, v float32) float32 { return u * v }, nil
	case BlendMultiplyAdd:
		return func(u, v float32) float32 { return u + u*v }, nil
	case BlendNegate:
		return func(u, v float32) float32 { return 1 - abs32(1-u-v) }, nil
	case BlendOverlay:
		return func(u, v float32) float32 {
			if u < 0.5 {
				return 2 * u * v
			}
			return 1 - 2*(1-u)*(1-v)
		}, nil
	case BlendSoft:
		return func(u, v float32) float32 { return (1-2*v)*u*u + 2*v*u }, nil
	case BlendSubstract:
		return func(u, v float32) float32 { return u - v }, nil
	}
	return nil, fmt.Errorf("blend: unknown method %d", int(m))
}

// Lerp writes a + t*(b - a) into out, with t read per element when tArr is
// not nil and tConst otherwise.
func Lerp(out, a, b, tArr *hmap.Array, tConst float32) {
	for n := range out.Vector {
		t := tConst
		if tArr != nil {
			t = tArr.Vector[n]
		}
		out.Vector[n] = lerp(a.Vector[n], b.Vector[n], t)
	}
}
