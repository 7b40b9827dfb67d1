package nodes

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/kernel/sdfx"
	"github.com/chazu/loam/pkg/node"
)

// ---------------------------------------------------------------------------
// Noise, NoiseFbm
// ---------------------------------------------------------------------------

func setupNoise(n *node.Node) {
	n.AddPort(node.In, portDx, node.Heightmap)
	n.AddPort(node.In, portDy, node.Heightmap)
	n.AddPort(node.In, portEnvelope, node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)

	n.AddAttr("noise_type", attr.NewMapEnum(kernel.NoiseTypes, "perlin"))
	n.AddAttr("kw", attr.DefaultWaveNumber())
	n.AddAttr("seed", attr.NewSeed(0))
	n.AddPostProcess()
}

func setupNoiseFbm(n *node.Node) {
	setupNoise(n)
	n.AddPort(node.In, portControl, node.Heightmap)

	p := kernel.DefaultFbm()
	n.AddAttr("octaves", attr.NewInt(p.Octaves, 0, 32))
	n.AddAttr("weight", attr.NewFloat(p.Weight, 0, 1))
	n.AddAttr("persistence", attr.NewFloat(p.Persistence, 0, 1))
	n.AddAttr("lacunarity", attr.NewFloat(p.Lacunarity, 0.01, 4))
}

func computeNoise(n *node.Node) error {
	typ := kernel.NoiseType(n.Attrs.MapEnum("noise_type"))
	kw := n.Attrs.WaveNumber("kw")
	seed := n.Attrs.Seed("seed")
	return fillPrimitive(n, func(shape geom.Vec2[int], bbox geom.Vec4, dx, dy, _ *hmap.Array) (*hmap.Array, error) {
		a := hmap.NewArray(shape)
		return a, kernel.Noise(a, bbox, typ, kw, seed, dx, dy, nil)
	})
}

func computeNoiseFbm(n *node.Node) error {
	typ := kernel.NoiseType(n.Attrs.MapEnum("noise_type"))
	kw := n.Attrs.WaveNumber("kw")
	seed := n.Attrs.Seed("seed")
	p := kernel.FbmParams{
		Octaves:     n.Attrs.Int("octaves"),
		Weight:      n.Attrs.Float("weight"),
		Persistence: n.Attrs.Float("persistence"),
		Lacunarity:  n.Attrs.Float("lacunarity"),
	}
	return fillPrimitive(n, func(shape geom.Vec2[int], bbox geom.Vec4, dx, dy, ctrl *hmap.Array) (*hmap.Array, error) {
		a := hmap.NewArray(shape)
		return a, kernel.Fbm(a, bbox, typ, kw, seed, p, dx, dy, ctrl)
	})
}

// fillPrimitive runs gen over the output tiles, then applies the envelope
// and the post-processing. The envelope scales the field above its minimum
// so an envelope of zero flattens the field to that minimum.
func fillPrimitive(n *node.Node, gen hmap.Generator) error {
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	var dx, dy, ctrl *hmap.Heightmap
	if _, ok := n.Port(node.In, portDx); ok {
		dx, dy = heightmapIn(n, portDx), heightmapIn(n, portDy)
	}
	if _, ok := n.Port(node.In, portControl); ok {
		ctrl = heightmapIn(n, portControl)
	}
	if err := hmap.Fill(n.Config.Executor, out, dx, dy, ctrl, gen); err != nil {
		return err
	}

	if _, ok := n.Port(node.In, portEnvelope); ok {
		if env := heightmapIn(n, portEnvelope); env != nil {
			hmin := out.Min()
			err := hmap.Transform(n.Config.Executor, n.Config.TransformModeCPU,
				[]*hmap.Heightmap{out}, []*hmap.Heightmap{env},
				func(o, in []*hmap.Array, _ geom.Vec4) error {
					for k, v := range o[0].Vector {
						o[0].Vector[k] = hmin + (v-hmin)*in[0].Vector[k]
					}
					return nil
				})
			if err != nil {
				return err
			}
		}
	}
	return node.PostProcess(n, out)
}

// ---------------------------------------------------------------------------
// WhiteNoise, Constant
// ---------------------------------------------------------------------------

func setupWhiteNoise(n *node.Node) {
	n.AddPort(node.In, portEnvelope, node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("seed", attr.NewSeed(0))
	n.AddPostProcess()
}

func computeWhiteNoise(n *node.Node) error {
	seed := n.Attrs.Seed("seed")
	return fillPrimitive(n, func(shape geom.Vec2[int], bbox geom.Vec4, _, _, _ *hmap.Array) (*hmap.Array, error) {
		a := hmap.NewArray(shape)
		kernel.White(a, bbox, seed)
		return a, nil
	})
}

func setupConstant(n *node.Node) {
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("value", attr.NewFloat(0, -1, 1))
}

func computeConstant(n *node.Node) error {
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.Fill(float32(n.Attrs.Float("value")))
	return nil
}

// ---------------------------------------------------------------------------
// SdfShape
// ---------------------------------------------------------------------------

var sdfModes = map[string]int{"mask": 0, "distance": 1}

func setupSdfShape(n *node.Node) {
	n.AddPort(node.Out, portOutput, node.Heightmap)

	n.AddAttr("shape", attr.NewMapEnum(sdfx.Kinds, "circle"))
	n.AddAttr("mode", attr.NewMapEnum(sdfModes, "mask"))
	n.AddAttr("center", attr.NewVecFloat([]float64{0.5, 0.5}, 0, 1))
	n.AddAttr("size", attr.NewVecFloat([]float64{0.25, 0.25}, 0, 1))
	n.AddAttr("sides", attr.NewInt(6, 3, 32))
	n.AddAttr("angle", attr.NewFloat(0, -180, 180))
	n.AddAttr("round", attr.NewFloat(0, 0, 0.2))
	n.AddAttr("hole", attr.NewFloat(0, 0, 0.5))
	n.AddAttr("falloff", attr.NewFloat(0.05, 0, 0.5))
	n.AddAttr("count", attr.NewInt(1, 1, 16))
	n.AddAttr("spacing", attr.NewFloat(0.25, 0, 1))
	n.AddPostProcess()
}

// sdfShape builds the union of count copies of the configured primitive,
// laid out along x and centred on the center attribute.
func sdfShape(m *attr.Map) (sdf.SDF2, error) {
	center, size := m.VecFloat("center"), m.VecFloat("size")
	if len(center) < 2 || len(size) < 2 {
		return nil, fmt.Errorf("center and size need two components, got %v and %v", center, size)
	}
	count, spacing := m.Int("count"), m.Float("spacing")
	shapes := make([]sdf.SDF2, 0, count)
	for k := 0; k < count; k++ {
		offset := (float64(k) - float64(count-1)/2) * spacing
		s, err := sdfx.Build(sdfx.Params{
			Kind:   sdfx.Kind(m.MapEnum("shape")),
			Center: geom.V2(center[0]+offset, center[1]),
			Size:   geom.V2(size[0], size[1]),
			Sides:  m.Int("sides"),
			Angle:  m.Float("angle"),
			Round:  m.Float("round"),
			Hole:   m.Float("hole"),
		})
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	if len(shapes) == 1 {
		return shapes[0], nil
	}
	return sdfx.Union(shapes...), nil
}

func computeSdfShape(n *node.Node) error {
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	s, err := sdfShape(n.Attrs)
	if err != nil {
		return err
	}
	distance := n.Attrs.MapEnum("mode") == sdfModes["distance"]
	falloff := n.Attrs.Float("falloff")
	err = hmap.Transform(n.Config.Executor, n.Config.TransformModeGPU, []*hmap.Heightmap{out}, nil,
		func(o, _ []*hmap.Array, bbox geom.Vec4) error {
			if distance {
				sdfx.Distance(o[0], bbox, s)
			} else {
				sdfx.Rasterize(o[0], bbox, s, falloff)
			}
			return nil
		})
	if err != nil {
		return err
	}
	return node.PostProcess(n, out)
}
