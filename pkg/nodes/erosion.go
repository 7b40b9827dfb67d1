package nodes

import (
	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
)

func setupThermal(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddPort(node.In, "bedrock", node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddPort(node.Out, "deposition", node.Heightmap)

	n.AddAttr("talus_global", attr.NewFloat(1, 0, 4))
	n.AddAttr("iterations", attr.NewInt(100, 1, 1000))
	n.AddPostProcess()
}

// computeThermal erodes the input. talus_global is a slope in value units
// per field width, converted to value units per pixel. The deposition
// output is the positive part of output - input.
func computeThermal(n *node.Node) error {
	in := heightmapIn(n, portInput)
	if in == nil {
		if err := n.SetValue("deposition", nil); err != nil {
			return err
		}
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	dep, err := n.EnsureHeightmap("deposition")
	if err != nil {
		return err
	}
	out.CopyFrom(in)

	talus := float32(n.Attrs.Float("talus_global") / float64(n.Config.Shape.X))
	iterations := n.Attrs.Int("iterations")
	err = hmap.Transform(n.Config.Executor, n.Config.TransformModeCPU,
		[]*hmap.Heightmap{out}, []*hmap.Heightmap{heightmapIn(n, "bedrock")},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			kernel.Thermal(o[0], talus, iterations, in[0])
			return nil
		})
	if err != nil {
		return err
	}

	err = hmap.Transform(n.Config.Executor, n.Config.TransformModeCPU,
		[]*hmap.Heightmap{dep}, []*hmap.Heightmap{out, in},
		func(o, in []*hmap.Array, _ geom.Vec4) error {
			for k := range o[0].Vector {
				o[0].Vector[k] = max(0, in[0].Vector[k]-in[1].Vector[k])
			}
			return nil
		})
	if err != nil {
		return err
	}
	return node.PostProcess(n, out)
}
