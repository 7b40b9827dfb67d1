package node

import (
	"math"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
)

// Post-processing attribute keys.
const (
	PostInverse         = "post_inverse"
	PostSmoothingRadius = "post_smoothing_radius"
	PostGain            = "post_gain"
	PostSaturate        = "post_saturate"
	PostRemap           = "post_remap"
)

// saturateK is the smoothing width of the saturation clamp, as a fraction
// of the field amplitude.
const saturateK = 0.01

// AddPostProcess declares the post-processing attributes with every step
// disabled.
func (n *Node) AddPostProcess() {
	n.AddAttr(PostInverse, attr.NewBool(false))
	n.AddAttr(PostSmoothingRadius, attr.NewFloat(0, 0, 0.2))
	n.AddAttr(PostGain, attr.NewFloat(1, 0.01, 10))
	n.AddAttr(PostSaturate, attr.DefaultRange(false))
	n.AddAttr(PostRemap, attr.DefaultRange(false))
}

// PostProcess applies the node's post-processing attributes to h in the
// fixed order inverse, smoothing, gain, saturate, remap. Steps whose
// attribute is missing or disabled are skipped.
func PostProcess(n *Node, h *hmap.Heightmap) error {
	if h == nil {
		return nil
	}
	m := n.Attrs

	if a, err := attr.Get[*attr.Bool](m, PostInverse); err == nil && a.Value() {
		h.Inverse()
	}

	if a, err := attr.Get[*attr.Float](m, PostSmoothingRadius); err == nil && a.Value() > 0 {
		ir := max(1, int(a.Value()*float64(h.Shape.X)))
		err := hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU, []*hmap.Heightmap{h}, nil,
			func(out, _ []*hmap.Array, _ geom.Vec4) error {
				kernel.SmoothCpulse(out[0], ir)
				return nil
			})
		if err != nil {
			return err
		}
	}

	if a, err := attr.Get[*attr.Float](m, PostGain); err == nil && a.Value() != 1 {
		hmin, hmax := h.Min(), h.Max()
		gain := float32(a.Value())
		h.Remap(0, 1)
		h.Apply(func(v float32) float32 { return kernel.GainValue(v, gain) })
		h.Remap(hmin, hmax)
	}

	if a, err := attr.Get[*attr.Range](m, PostSaturate); err == nil && a.Active() {
		hmin, hmax := h.Min(), h.Max()
		span := hmax - hmin
		lo := hmin + float32(a.Lo())*span
		hi := hmax - float32(1-a.Hi())*span
		k := float32(math.Max(1e-6, saturateK*float64(span)))
		h.Apply(func(v float32) float32 { return kernel.ClampSmoothValue(v, lo, hi, k) })
		h.Remap(hmin, hmax)
	}

	if a, err := attr.Get[*attr.Range](m, PostRemap); err == nil && a.Active() {
		h.Remap(float32(a.Lo()), float32(a.Hi()))
	}
	return nil
}
