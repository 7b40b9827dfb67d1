package attr

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/loam/pkg/geom"
	"github.com/lucasb-eyer/go-colorful"
)

// ---------------------------------------------------------------------------
// Shape
// ---------------------------------------------------------------------------

// Shape is an integer 2D extent bounded by a maximum.
type Shape struct {
	base
	value, max geom.Vec2[int]
}

// NewShape returns a Shape clamped into [1, max].
func NewShape(v, max geom.Vec2[int]) *Shape {
	a := &Shape{max: max}
	a.Set(v)
	return a
}

func (*Shape) Kind() Kind              { return KindShape }
func (a *Shape) Value() geom.Vec2[int] { return a.value }
func (a *Shape) Max() geom.Vec2[int]   { return a.max }

// Set stores v clamped per axis into [1, max].
func (a *Shape) Set(v geom.Vec2[int]) {
	a.value.X = max(1, min(a.max.X, v.X))
	a.value.Y = max(1, min(a.max.Y, v.Y))
}

func (a *Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindShape.String(), Value: a.value, Max: a.max})
}
func (a *Shape) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[geom.Vec2[int]](data, KindShape)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// VecFloat / VecInt
// ---------------------------------------------------------------------------

// VecFloat is a list of bounded reals.
type VecFloat struct {
	base
	value    []float64
	min, max float64
}

// NewVecFloat returns a VecFloat with every element clamped.
func NewVecFloat(v []float64, min, max float64) *VecFloat {
	a := &VecFloat{min: min, max: max}
	a.Set(v)
	return a
}

func (*VecFloat) Kind() Kind                   { return KindVecFloat }
func (a *VecFloat) Value() []float64           { return append([]float64(nil), a.value...) }
func (a *VecFloat) Bounds() (min, max float64) { return a.min, a.max }

// Set stores a copy of v with every element clamped. NaN elements are
// replaced by the lower bound.
func (a *VecFloat) Set(v []float64) {
	a.value = make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			x = a.min
		}
		a.value[i] = math.Max(a.min, math.Min(a.max, x))
	}
}

func (a *VecFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindVecFloat.String(), Value: a.value, Min: a.min, Max: a.max})
}
func (a *VecFloat) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[[]float64](data, KindVecFloat)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// VecInt is a list of bounded integers.
type VecInt struct {
	base
	value    []int
	min, max int
}

// NewVecInt returns a VecInt with every element clamped.
func NewVecInt(v []int, min, max int) *VecInt {
	a := &VecInt{min: min, max: max}
	a.Set(v)
	return a
}

func (*VecInt) Kind() Kind               { return KindVecInt }
func (a *VecInt) Value() []int           { return append([]int(nil), a.value...) }
func (a *VecInt) Bounds() (min, max int) { return a.min, a.max }

// Set stores a copy of v with every element clamped.
func (a *VecInt) Set(v []int) {
	a.value = make([]int, len(v))
	for i, x := range v {
		a.value[i] = max(a.min, min(a.max, x))
	}
}

func (a *VecInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindVecInt.String(), Value: a.value, Min: a.min, Max: a.max})
}
func (a *VecInt) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[[]int](data, KindVecInt)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// WaveNumber
// ---------------------------------------------------------------------------

// WaveNumber is a bounded 2D spatial frequency. LinkXY is an editing hint
// only; the stored components are always independent.
type WaveNumber struct {
	base
	value    geom.Vec2[float64]
	min, max float64
	linkXY   bool
}

// NewWaveNumber returns a WaveNumber attribute.
func NewWaveNumber(v geom.Vec2[float64], min, max float64, linkXY bool) *WaveNumber {
	a := &WaveNumber{min: min, max: max, linkXY: linkXY}
	a.Set(v)
	return a
}

// DefaultWaveNumber returns kw = (2, 2) in [0.1, 64] with linked axes.
func DefaultWaveNumber() *WaveNumber {
	return NewWaveNumber(geom.V2(2.0, 2.0), 0.1, 64, true)
}

func (*WaveNumber) Kind() Kind                   { return KindWaveNumber }
func (a *WaveNumber) Value() geom.Vec2[float64]  { return a.value }
func (a *WaveNumber) Bounds() (min, max float64) { return a.min, a.max }
func (a *WaveNumber) LinkXY() bool               { return a.linkXY }

// SetLinkXY sets the axis linking hint. The value is left unchanged.
func (a *WaveNumber) SetLinkXY(link bool) { a.linkXY = link }

// Set stores v with each component clamped into the bounds.
func (a *WaveNumber) Set(v geom.Vec2[float64]) {
	if math.IsNaN(v.X) || math.IsNaN(v.Y) {
		return
	}
	a.value.X = math.Max(a.min, math.Min(a.max, v.X))
	a.value.Y = math.Max(a.min, math.Min(a.max, v.Y))
}

func (a *WaveNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Type:   KindWaveNumber.String(),
		Value:  a.value,
		Min:    a.min,
		Max:    a.max,
		LinkXY: boolPtr(a.linkXY),
	})
}
func (a *WaveNumber) UnmarshalJSON(data []byte) error {
	v, e, err := decodeValue[geom.Vec2[float64]](data, KindWaveNumber)
	if err != nil {
		return err
	}
	if e.LinkXY != nil {
		a.linkXY = *e.LinkXY
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// Color
// ---------------------------------------------------------------------------

// Color is an RGBA color with components in [0, 1].
type Color struct {
	base
	value [4]float64
}

// NewColor returns a Color with clamped components.
func NewColor(r, g, b, alpha float64) *Color {
	a := &Color{}
	a.Set([4]float64{r, g, b, alpha})
	return a
}

// NewColorHex parses "#rrggbb" into an opaque Color.
func NewColorHex(hex string) (*Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return NewColor(c.R, c.G, c.B, 1), nil
}

func (*Color) Kind() Kind          { return KindColor }
func (a *Color) Value() [4]float64 { return a.value }

// Colorful returns the RGB part as a colorful.Color.
func (a *Color) Colorful() colorful.Color {
	return colorful.Color{R: a.value[0], G: a.value[1], B: a.value[2]}
}

// Hex returns the RGB part as "#rrggbb".
func (a *Color) Hex() string { return a.Colorful().Clamped().Hex() }

// Set stores v with every component clamped into [0, 1].
func (a *Color) Set(v [4]float64) {
	for i, x := range v {
		if math.IsNaN(x) {
			return
		}
		v[i] = math.Max(0, math.Min(1, x))
	}
	a.value = v
}

func (a *Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindColor.String(), Value: a.value})
}
func (a *Color) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[[4]float64](data, KindColor)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// ColorGradient
// ---------------------------------------------------------------------------

// GradientStop is one color stop of a gradient.
type GradientStop struct {
	Position float64    `json:"position"`
	Color    [4]float64 `json:"color"`
}

// ColorGradient is a piecewise color ramp over [0, 1], interpolated in
// CIE-Lab space.
type ColorGradient struct {
	base
	stops []GradientStop
}

// NewColorGradient returns a gradient with the given stops.
func NewColorGradient(stops []GradientStop) *ColorGradient {
	a := &ColorGradient{}
	a.Set(stops)
	return a
}

// DefaultColorGradient returns a black to white ramp.
func DefaultColorGradient() *ColorGradient {
	return NewColorGradient([]GradientStop{
		{Position: 0, Color: [4]float64{0, 0, 0, 1}},
		{Position: 1, Color: [4]float64{1, 1, 1, 1}},
	})
}

func (*ColorGradient) Kind() Kind              { return KindColorGradient }
func (a *ColorGradient) Value() []GradientStop { return append([]GradientStop(nil), a.stops...) }

// Set stores the stops sorted by position, with positions and components
// clamped into [0, 1].
func (a *ColorGradient) Set(stops []GradientStop) {
	s := make([]GradientStop, len(stops))
	for i, st := range stops {
		st.Position = math.Max(0, math.Min(1, st.Position))
		for c := range st.Color {
			st.Color[c] = math.Max(0, math.Min(1, st.Color[c]))
		}
		s[i] = st
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].Position < s[j].Position })
	a.stops = s
}

// At evaluates the gradient at t, returning r, g, b, alpha.
func (a *ColorGradient) At(t float64) (r, g, b, alpha float64) {
	n := len(a.stops)
	switch {
	case n == 0:
		return t, t, t, 1
	case t <= a.stops[0].Position:
		c := a.stops[0].Color
		return c[0], c[1], c[2], c[3]
	case t >= a.stops[n-1].Position:
		c := a.stops[n-1].Color
		return c[0], c[1], c[2], c[3]
	}
	k := sort.Search(n, func(i int) bool { return a.stops[i].Position > t }) - 1
	s0, s1 := a.stops[k], a.stops[k+1]
	u := 0.0
	if s1.Position > s0.Position {
		u = (t - s0.Position) / (s1.Position - s0.Position)
	}
	c0 := colorful.Color{R: s0.Color[0], G: s0.Color[1], B: s0.Color[2]}
	c1 := colorful.Color{R: s1.Color[0], G: s1.Color[1], B: s1.Color[2]}
	c := c0.BlendLab(c1, u).Clamped()
	return c.R, c.G, c.B, s0.Color[3] + u*(s1.Color[3]-s0.Color[3])
}

func (a *ColorGradient) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindColorGradient.String(), Value: a.stops})
}
func (a *ColorGradient) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[[]GradientStop](data, KindColorGradient)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// Matrix
// ---------------------------------------------------------------------------

// Matrix is a rectangular table of reals.
type Matrix struct {
	base
	value [][]float64
}

// NewMatrix returns a Matrix. Rows must have equal length.
func NewMatrix(m [][]float64) *Matrix {
	a := &Matrix{}
	if err := a.Set(m); err != nil {
		panic("attr: " + err.Error())
	}
	return a
}

func (*Matrix) Kind() Kind { return KindMatrix }

// Value returns a copy of the rows.
func (a *Matrix) Value() [][]float64 {
	out := make([][]float64, len(a.value))
	for i, row := range a.value {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Set stores a copy of m. Ragged matrices are rejected.
func (a *Matrix) Set(m [][]float64) error {
	for i, row := range m {
		if len(row) != len(m[0]) {
			return fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), len(m[0]))
		}
	}
	a.value = make([][]float64, len(m))
	for i, row := range m {
		a.value[i] = append([]float64(nil), row...)
	}
	return nil
}

func (a *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindMatrix.String(), Value: a.value})
}
func (a *Matrix) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[[][]float64](data, KindMatrix)
	if err != nil {
		return err
	}
	return a.Set(v)
}

// ---------------------------------------------------------------------------
// Cloud / Path
// ---------------------------------------------------------------------------

// Cloud holds a point set.
type Cloud struct {
	base
	value geom.Cloud
}

// NewCloud returns a Cloud attribute.
func NewCloud(c geom.Cloud) *Cloud {
	a := &Cloud{}
	a.Set(c)
	return a
}

func (*Cloud) Kind() Kind { return KindCloud }

// Value returns a copy of the point set.
func (a *Cloud) Value() geom.Cloud {
	return geom.Cloud{Points: append([]geom.Point(nil), a.value.Points...)}
}

// Set stores a copy of c.
func (a *Cloud) Set(c geom.Cloud) {
	a.value = geom.Cloud{Points: append([]geom.Point(nil), c.Points...)}
}

func (a *Cloud) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindCloud.String(), Value: a.value})
}
func (a *Cloud) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[geom.Cloud](data, KindCloud)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// Path holds a polyline.
type Path struct {
	base
	value geom.Path
}

// NewPath returns a Path attribute.
func NewPath(p geom.Path) *Path {
	a := &Path{}
	a.Set(p)
	return a
}

func (*Path) Kind() Kind { return KindPath }

// Value returns a copy of the polyline.
func (a *Path) Value() geom.Path {
	return geom.Path{Points: append([]geom.Point(nil), a.value.Points...), Closed: a.value.Closed}
}

// Set stores a copy of p.
func (a *Path) Set(p geom.Path) {
	a.value = geom.Path{Points: append([]geom.Point(nil), p.Points...), Closed: p.Closed}
}

func (a *Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindPath.String(), Value: a.value})
}
func (a *Path) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[geom.Path](data, KindPath)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}
