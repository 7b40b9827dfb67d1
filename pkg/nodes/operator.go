package nodes

import (
	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
)

// ---------------------------------------------------------------------------
// Blend
// ---------------------------------------------------------------------------

func setupBlend(n *node.Node) {
	n.AddPort(node.In, "input1", node.Heightmap)
	n.AddPort(node.In, "input2", node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)

	n.AddAttr("blending_method", attr.NewMapEnum(kernel.BlendMethods, "add"))
	n.AddAttr("k", attr.NewFloat(0.1, 0.01, 1))
	n.AddAttr("radius", attr.NewFloat(0.05, 0, 0.2))
	n.AddAttr("input1_weight", attr.NewFloat(1, 0, 1))
	n.AddAttr("input2_weight", attr.NewFloat(1, 0, 1))
	n.AddAttr("swap_inputs", attr.NewBool(false))
	n.AddPostProcess()
}

// computeBlend combines both inputs. With a single input connected the
// output is that input, post-processed; with none the output is empty.
func computeBlend(n *node.Node) error {
	a, b := heightmapIn(n, "input1"), heightmapIn(n, "input2")
	if n.Attrs.Bool("swap_inputs") {
		a, b = b, a
	}
	if a == nil && b == nil {
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	if a == nil || b == nil {
		out.CopyFrom(firstNonNil(a, b))
		return node.PostProcess(n, out)
	}

	p := kernel.BlendParams{
		Method: kernel.BlendMethod(n.Attrs.MapEnum("blending_method")),
		K:      float32(n.Attrs.Float("k")),
		Radius: pixelRadius(n, n.Attrs.Float("radius")),
		W1:     float32(n.Attrs.Float("input1_weight")),
		W2:     float32(n.Attrs.Float("input2_weight")),
	}
	err = hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU,
		[]*hmap.Heightmap{out}, []*hmap.Heightmap{a, b},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			return kernel.Blend(o[0], in[0], in[1], p)
		})
	if err != nil {
		return err
	}
	return node.PostProcess(n, out)
}

func firstNonNil(hs ...*hmap.Heightmap) *hmap.Heightmap {
	for _, h := range hs {
		if h != nil {
			return h
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lerp
// ---------------------------------------------------------------------------

func setupLerp(n *node.Node) {
	n.AddPort(node.In, "a", node.Heightmap)
	n.AddPort(node.In, "b", node.Heightmap)
	n.AddPort(node.In, "t", node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("t", attr.NewFloat(0.5, 0, 1))
}

// computeLerp interpolates between a and b, with the t input overriding
// the t attribute when connected. A missing endpoint passes the other one
// through.
func computeLerp(n *node.Node) error {
	a, b, t := heightmapIn(n, "a"), heightmapIn(n, "b"), heightmapIn(n, "t")
	if a == nil && b == nil {
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	if a == nil || b == nil {
		out.CopyFrom(firstNonNil(a, b))
		return nil
	}
	tc := float32(n.Attrs.Float("t"))
	return hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU,
		[]*hmap.Heightmap{out}, []*hmap.Heightmap{a, b, t},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			kernel.Lerp(o[0], in[0], in[1], in[2], tc)
			return nil
		})
}

// ---------------------------------------------------------------------------
// Warp
// ---------------------------------------------------------------------------

func setupWarp(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddPort(node.In, portDx, node.Heightmap)
	n.AddPort(node.In, portDy, node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("scale", attr.NewFloat(0.1, 0, 1))
	n.AddPostProcess()
}

func computeWarp(n *node.Node) error {
	in := heightmapIn(n, portInput)
	if in == nil {
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	scale := n.Attrs.Float("scale")
	err = hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU,
		[]*hmap.Heightmap{out}, []*hmap.Heightmap{in, heightmapIn(n, portDx), heightmapIn(n, portDy)},
		func(o, in []*hmap.Array, bbox geom.Vec4) error {
			return kernel.Warp(o[0], in[0], in[1], in[2], bbox, scale)
		})
	if err != nil {
		return err
	}
	return node.PostProcess(n, out)
}
