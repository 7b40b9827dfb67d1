package kernel

import (
	"math"

	"github.com/chazu/loam/pkg/hmap"
)

// cpulse returns the normalized weights of a cubic pulse of radius ir:
// w(t) = 1 - t^2 (3 - 2|t|) for |t| < 1.
func cpulse(ir int) []float32 {
	w := make([]float32, 2*ir+1)
	var sum float32
	for k := -ir; k <= ir; k++ {
		t := math.Abs(float64(k)) / float64(ir+1)
		v := float32(1 - t*t*(3-2*t))
		w[k+ir] = v
		sum += v
	}
	for k := range w {
		w[k] /= sum
	}
	return w
}

// SmoothCpulse convolves a with a separable cubic pulse of pixel radius ir.
// Borders are clamped. A non-positive radius leaves a unchanged.
func SmoothCpulse(a *hmap.Array, ir int) {
	if ir <= 0 || a.Size() == 0 {
		return
	}
	w := cpulse(ir)
	nx, ny := a.Shape.X, a.Shape.Y
	tmp := hmap.NewArray(a.Shape)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var s float32
			for k, wk := range w {
				s += wk * a.AtClamped(i+k-ir, j)
			}
			tmp.Set(i, j, s)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var s float32
			for k, wk := range w {
				s += wk * tmp.AtClamped(i, j+k-ir)
			}
			a.Set(i, j, s)
		}
	}
}

// GainValue applies the gain curve to v in [0, 1]. gain > 1 sharpens the
// transition around 0.5, gain < 1 flattens it.
func GainValue(v, gain float32) float32 {
	v = clamp01(v)
	g := float64(gain)
	if v < 0.5 {
		return float32(0.5 * math.Pow(2*float64(v), g))
	}
	return float32(1 - 0.5*math.Pow(2*(1-float64(v)), g))
}

// Gain applies GainValue to every element of a, whose values are expected
// in [0, 1].
func Gain(a *hmap.Array, gain float32) {
	for k, v := range a.Vector {
		a.Vector[k] = GainValue(v, gain)
	}
}

// ClampSmoothValue clamps v to [lo, hi] with quadratic rounding of width k
// at both bounds.
func ClampSmoothValue(v, lo, hi, k float32) float32 {
	return maxSmooth(minSmooth(v, hi, k), lo, k)
}

// ClampSmooth applies ClampSmoothValue to every element.
func ClampSmooth(a *hmap.Array, lo, hi, k float32) {
	for n, v := range a.Vector {
		a.Vector[n] = ClampSmoothValue(v, lo, hi, k)
	}
}

func minSmooth(a, b, k float32) float32 {
	if k <= 0 {
		return min(a, b)
	}
	h := max(k-abs32(a-b), 0) / k
	return min(a, b) - h*h*k/4
}

func maxSmooth(a, b, k float32) float32 {
	if k <= 0 {
		return max(a, b)
	}
	h := max(k-abs32(a-b), 0) / k
	return max(a, b) + h*h*k/4
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Gradient returns the central-difference gradient norm of a, in value
// units per pixel.
func Gradient(a *hmap.Array) *hmap.Array {
	g := hmap.NewArray(a.Shape)
	for j := 0; j < a.Shape.Y; j++ {
		for i := 0; i < a.Shape.X; i++ {
			gx := 0.5 * (a.AtClamped(i+1, j) - a.AtClamped(i-1, j))
			gy := 0.5 * (a.AtClamped(i, j+1) - a.AtClamped(i, j-1))
			g.Set(i, j, float32(math.Hypot(float64(gx), float64(gy))))
		}
	}
	return g
}
