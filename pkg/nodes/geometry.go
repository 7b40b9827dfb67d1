package nodes

import (
	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
)

// ---------------------------------------------------------------------------
// Clouds
// ---------------------------------------------------------------------------

func setupCloudRandom(n *node.Node) {
	n.AddPort(node.Out, "cloud", node.Cloud)
	n.AddAttr("npoints", attr.NewInt(50, 1, 10000))
	n.AddAttr("seed", attr.NewSeed(0))
	n.AddAttr("remap", attr.DefaultRange(false))
}

func computeCloudRandom(n *node.Node) error {
	c := kernel.RandomCloud(n.Attrs.Int("npoints"), n.Attrs.Seed("seed"), geom.UnitSquare)
	if r := n.Attrs.Range("remap"); r.Active() {
		c.RemapValues(r.Lo(), r.Hi())
	}
	return n.SetValue("cloud", &c)
}

func setupCloudToHeightmap(n *node.Node) {
	n.AddPort(node.In, "cloud", node.Cloud)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("radius", attr.NewFloat(0.05, 0, 0.5))
	n.AddPostProcess()
}

func computeCloudToHeightmap(n *node.Node) error {
	c := node.Input[*geom.Cloud](n, "cloud")
	if c == nil {
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.Fill(0)
	radius := n.Attrs.Float("radius")
	if err := inPlaceBBox(n, out, func(a *hmap.Array, bbox geom.Vec4) { kernel.SplatCloud(a, bbox, *c, radius) }); err != nil {
		return err
	}
	return node.PostProcess(n, out)
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func setupPath(n *node.Node) {
	n.AddPort(node.Out, "path", node.Path)
	n.AddAttr("path", attr.NewPath(geom.Path{}))
}

func computePath(n *node.Node) error {
	p := n.Attrs.Path("path")
	return n.SetValue("path", &p)
}

func setupPathToHeightmap(n *node.Node) {
	n.AddPort(node.In, "path", node.Path)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("width", attr.NewFloat(0.02, 0, 0.2))
	n.AddPostProcess()
}

func computePathToHeightmap(n *node.Node) error {
	p := node.Input[*geom.Path](n, "path")
	if p == nil {
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.Fill(0)
	width := n.Attrs.Float("width")
	if err := inPlaceBBox(n, out, func(a *hmap.Array, bbox geom.Vec4) { kernel.SplatPath(a, bbox, *p, width) }); err != nil {
		return err
	}
	return node.PostProcess(n, out)
}

// inPlaceBBox is inPlace for kernels that need the tile extent.
func inPlaceBBox(n *node.Node, h *hmap.Heightmap, fn func(a *hmap.Array, bbox geom.Vec4)) error {
	return hmap.Transform(n.Config.Executor, n.Config.TransformModeCPU, []*hmap.Heightmap{h}, nil,
		func(o, _ []*hmap.Array, bbox geom.Vec4) error {
			fn(o[0], bbox)
			return nil
		})
}
