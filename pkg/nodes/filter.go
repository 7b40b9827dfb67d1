package nodes

import (
	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
)

// The filters copy their input into the output buffer and then work in
// place. A missing input empties the output.

func setupClamp(n *node.Node) {
	setupFilter(n)
	n.AddAttr("clamp", attr.NewRange(0, 1, -1, 2, true))
	n.AddAttr("smooth", attr.NewBool(false))
	n.AddAttr("k_smooth", attr.NewFloat(0.05, 0.01, 1))
}

func computeClamp(n *node.Node) error {
	out, err := passInput(n)
	if out == nil || err != nil {
		return err
	}
	r := n.Attrs.Range("clamp")
	lo, hi := float32(r.Lo()), float32(r.Hi())
	k := float32(n.Attrs.Float("k_smooth"))
	smooth := n.Attrs.Bool("smooth")
	return inPlace(n, n.Config.TransformModeGPU, out, func(a *hmap.Array) {
		if smooth {
			kernel.ClampSmooth(a, lo, hi, k)
		} else {
			a.Clamp(lo, hi)
		}
	})
}

func setupGain(n *node.Node) {
	setupFilter(n)
	n.AddAttr("gain", attr.NewFloat(2, 0.01, 10))
	n.AddPostProcess()
}

// computeGain applies the gain curve on the field normalized to [0, 1],
// then restores the original range.
func computeGain(n *node.Node) error {
	out, err := passInput(n)
	if out == nil || err != nil {
		return err
	}
	hmin, hmax := out.Min(), out.Max()
	gain := float32(n.Attrs.Float("gain"))
	out.Remap(0, 1)
	if err := inPlace(n, n.Config.TransformModeGPU, out, func(a *hmap.Array) { kernel.Gain(a, gain) }); err != nil {
		return err
	}
	out.Remap(hmin, hmax)
	return node.PostProcess(n, out)
}

func setupRemap(n *node.Node) {
	setupFilter(n)
	n.AddAttr("remap", attr.DefaultRange(true))
}

func computeRemap(n *node.Node) error {
	out, err := passInput(n)
	if out == nil || err != nil {
		return err
	}
	if r := n.Attrs.Range("remap"); r.Active() {
		out.Remap(float32(r.Lo()), float32(r.Hi()))
	}
	return nil
}

func computeInverse(n *node.Node) error {
	out, err := passInput(n)
	if out == nil || err != nil {
		return err
	}
	out.Inverse()
	return nil
}

func setupSmooth(n *node.Node) {
	setupFilter(n)
	n.AddAttr("radius", attr.NewFloat(0.05, 0, 0.2))
	n.AddPostProcess()
}

func computeSmooth(n *node.Node) error {
	out, err := passInput(n)
	if out == nil || err != nil {
		return err
	}
	ir := pixelRadius(n, n.Attrs.Float("radius"))
	if err := inPlace(n, n.Config.TransformModeGPU, out, func(a *hmap.Array) { kernel.SmoothCpulse(a, ir) }); err != nil {
		return err
	}
	return node.PostProcess(n, out)
}

// inPlace runs fn over the tiles of h under mode.
func inPlace(n *node.Node, mode hmap.TransformMode, h *hmap.Heightmap, fn func(a *hmap.Array)) error {
	return hmap.Transform(n.Config.Executor, mode, []*hmap.Heightmap{h}, nil,
		func(o, _ []*hmap.Array, _ geom.Vec4) error {
			fn(o[0])
			return nil
		})
}
