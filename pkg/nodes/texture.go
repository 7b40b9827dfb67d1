package nodes

import (
	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
)

func setupColorizeSolid(n *node.Node) {
	n.AddPort(node.In, portAlpha, node.Heightmap)
	n.AddPort(node.Out, portTexture, node.HeightmapRGBA)
	n.AddAttr("color", attr.NewColor(0.5, 0.5, 0.5, 1))
}

func computeColorizeSolid(n *node.Node) error {
	tex, err := n.EnsureRGBA(portTexture)
	if err != nil {
		return err
	}
	c := n.Attrs.Color("color")
	return hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU,
		tex.Channels(), []*hmap.Heightmap{heightmapIn(n, portAlpha)},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			kernel.Solid([4]*hmap.Array{o[0], o[1], o[2], o[3]}, c, in[0])
			return nil
		})
}

func setupColorizeGradient(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddPort(node.In, portAlpha, node.Heightmap)
	n.AddPort(node.Out, portTexture, node.HeightmapRGBA)
	n.AddAttr("gradient", attr.DefaultColorGradient())
	n.AddAttr("reverse", attr.NewBool(false))
	n.AddAttr("clamp", attr.DefaultRange(false))
}

// computeColorizeGradient maps the input through the gradient. The value
// range is taken from the whole field, or from the clamp range when it is
// active, so every tile uses the same normalization.
func computeColorizeGradient(n *node.Node) error {
	in := heightmapIn(n, portInput)
	if in == nil {
		return n.SetValue(portTexture, nil)
	}
	tex, err := n.EnsureRGBA(portTexture)
	if err != nil {
		return err
	}

	vmin, vmax := in.Min(), in.Max()
	if r := n.Attrs.Range("clamp"); r.Active() {
		vmin, vmax = float32(r.Lo()), float32(r.Hi())
	}
	grad := n.Attrs.ColorGradient("gradient")
	reverse := n.Attrs.Bool("reverse")
	lut := func(t float64) [4]float64 {
		if reverse {
			t = 1 - t
		}
		r, g, b, a := grad.At(t)
		return [4]float64{r, g, b, a}
	}
	return hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU,
		tex.Channels(), []*hmap.Heightmap{in, heightmapIn(n, portAlpha)},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			kernel.Colorize([4]*hmap.Array{o[0], o[1], o[2], o[3]}, in[0], vmin, vmax, lut, in[1])
			return nil
		})
}
