package attr

import (
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/geom"
)

// New returns an attribute of kind k with its default value and bounds.
func New(k Kind) (Attribute, error) {
	switch k {
	case KindBool:
		return NewBool(false), nil
	case KindInt:
		return NewInt(0, 0, 1), nil
	case KindFloat:
		return NewFloat(1, 0, 1), nil
	case KindRange:
		return DefaultRange(true), nil
	case KindSeed:
		return NewSeed(1), nil
	case KindShape:
		return NewShape(geom.V2(1024, 1024), geom.V2(8192, 8192)), nil
	case KindVecFloat:
		return NewVecFloat(nil, 0.1, 64), nil
	case KindVecInt:
		return NewVecInt(nil, 0, 64), nil
	case KindWaveNumber:
		return DefaultWaveNumber(), nil
	case KindColor:
		return NewColor(1, 1, 1, 1), nil
	case KindFilename:
		return NewFilename("", "", false), nil
	case KindMatrix:
		return NewMatrix(nil), nil
	case KindCloud:
		return NewCloud(geom.Cloud{}), nil
	case KindPath:
		return NewPath(geom.Path{}), nil
	case KindString:
		return NewString(""), nil
	case KindChoice:
		return NewChoice(nil, ""), nil
	case KindColorGradient:
		return DefaultColorGradient(), nil
	}
	// MapEnum has no meaningful default mapping.
	return nil, fmt.Errorf("no default for attribute kind %s", k)
}

// Assign stores a loosely typed Go value into a, converting between
// compatible representations (for instance an int into a Float). Bounded
// kinds clamp as their Set methods do. Incompatible values are rejected
// with an error wrapping ErrKindMismatch and leave a unchanged.
func Assign(a Attribute, v any) error {
	switch a := a.(type) {
	case *Bool:
		if b, ok := v.(bool); ok {
			a.Set(b)
			return nil
		}
	case *Int:
		if f, ok := toFloat(v); ok && f == math.Trunc(f) {
			a.Set(int(f))
			return nil
		}
	case *Float:
		if f, ok := toFloat(v); ok {
			a.Set(f)
			return nil
		}
	case *Range:
		switch r := v.(type) {
		case bool:
			a.SetActive(r)
			return nil
		default:
			if p, ok := toPair(v); ok {
				a.Set(p[0], p[1])
				return nil
			}
		}
	case *Seed:
		if f, ok := toFloat(v); ok && f >= 0 && f <= math.MaxUint32 && f == math.Trunc(f) {
			a.Set(uint32(f))
			return nil
		}
	case *Shape:
		switch s := v.(type) {
		case geom.Vec2[int]:
			a.Set(s)
			return nil
		default:
			if f, ok := toFloat(v); ok {
				a.Set(geom.V2(int(f), int(f)))
				return nil
			}
			if p, ok := toPair(v); ok {
				a.Set(geom.V2(int(p[0]), int(p[1])))
				return nil
			}
		}
	case *VecFloat:
		if fs, ok := toFloats(v); ok {
			a.Set(fs)
			return nil
		}
	case *VecInt:
		if fs, ok := toFloats(v); ok {
			is := make([]int, len(fs))
			for i, f := range fs {
				is[i] = int(f)
			}
			a.Set(is)
			return nil
		}
	case *WaveNumber:
		switch w := v.(type) {
		case geom.Vec2[float64]:
			a.Set(w)
			return nil
		default:
			if f, ok := toFloat(v); ok {
				a.Set(geom.V2(f, f))
				return nil
			}
			if p, ok := toPair(v); ok {
				a.Set(geom.V2(p[0], p[1]))
				return nil
			}
		}
	case *MapEnum:
		switch e := v.(type) {
		case string:
			return a.Set(e)
		case int:
			return a.SetValue(e)
		}
	case *Color:
		switch c := v.(type) {
		case string:
			parsed, err := NewColorHex(c)
			if err != nil {
				return err
			}
			a.Set(parsed.Value())
			return nil
		default:
			if fs, ok := toFloats(v); ok && (len(fs) == 3 || len(fs) == 4) {
				rgba := [4]float64{0, 0, 0, 1}
				copy(rgba[:], fs)
				a.Set(rgba)
				return nil
			}
		}
	case *Filename:
		if s, ok := v.(string); ok {
			a.Set(s)
			return nil
		}
	case *String:
		if s, ok := v.(string); ok {
			a.Set(s)
			return nil
		}
	case *Choice:
		if s, ok := v.(string); ok {
			return a.Set(s)
		}
	case *Matrix:
		if m, ok := v.([][]float64); ok {
			return a.Set(m)
		}
	case *Cloud:
		if c, ok := v.(geom.Cloud); ok {
			a.Set(c)
			return nil
		}
	case *Path:
		if p, ok := v.(geom.Path); ok {
			a.Set(p)
			return nil
		}
	case *ColorGradient:
		if s, ok := v.([]GradientStop); ok {
			a.Set(s)
			return nil
		}
	}
	return fmt.Errorf("%w: cannot assign %T to %s", ErrKindMismatch, v, a.Kind())
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toFloats(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []int:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out, true
	case []any:
		out := make([]float64, len(s))
		for i, x := range s {
			f, ok := toFloat(x)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case [2]float64:
		return s[:], true
	case [4]float64:
		return s[:], true
	}
	return nil, false
}

func toPair(v any) ([2]float64, bool) {
	fs, ok := toFloats(v)
	if !ok || len(fs) != 2 {
		return [2]float64{}, false
	}
	return [2]float64{fs[0], fs[1]}, true
}
