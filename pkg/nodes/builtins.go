package nodes

import (
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/node"
)

// Common port names.
const (
	portInput    = "input"
	portOutput   = "output"
	portDx       = "dx"
	portDy       = "dy"
	portEnvelope = "envelope"
	portControl  = "control"
	portTexture  = "texture"
	portAlpha    = "alpha"
)

// builtins is the table of node kinds registered by Default. The map key
// is the node type.
var builtins = map[string]Kind{
	// Primitives
	"Noise":      {Category: "Primitive/Coherent", Setup: setupNoise, Compute: computeNoise},
	"NoiseFbm":   {Category: "Primitive/Coherent", Setup: setupNoiseFbm, Compute: computeNoiseFbm},
	"WhiteNoise": {Category: "Primitive/Random", Setup: setupWhiteNoise, Compute: computeWhiteNoise},
	"Constant":   {Category: "Primitive/Function", Setup: setupConstant, Compute: computeConstant},
	"SdfShape":   {Category: "Primitive/Geometry", Setup: setupSdfShape, Compute: computeSdfShape},

	// Operators
	"Blend": {Category: "Operator/Blend", Setup: setupBlend, Compute: computeBlend},
	"Lerp":  {Category: "Operator/Blend", Setup: setupLerp, Compute: computeLerp},
	"Warp":  {Category: "Operator/Transform", Setup: setupWarp, Compute: computeWarp},

	// Filters
	"Clamp":   {Category: "Filter/Range", Setup: setupClamp, Compute: computeClamp},
	"Gain":    {Category: "Filter/Range", Setup: setupGain, Compute: computeGain},
	"Remap":   {Category: "Filter/Range", Setup: setupRemap, Compute: computeRemap},
	"Inverse": {Category: "Filter/Range", Setup: setupFilter, Compute: computeInverse},
	"Smooth":  {Category: "Filter/Smoothing", Setup: setupSmooth, Compute: computeSmooth},

	"Thermal": {Category: "Erosion/Thermal", Setup: setupThermal, Compute: computeThermal},

	// Routing
	"Broadcast": {Category: "Routing", Setup: setupBroadcast, Compute: computeBroadcast},
	"Receive":   {Category: "Routing", Setup: setupReceive, Compute: computeReceive},

	// Texture
	"ColorizeSolid":    {Category: "Texture", Setup: setupColorizeSolid, Compute: computeColorizeSolid},
	"ColorizeGradient": {Category: "Texture", Setup: setupColorizeGradient, Compute: computeColorizeGradient},

	// Geometry
	"CloudRandom":      {Category: "Geometry/Cloud", Setup: setupCloudRandom, Compute: computeCloudRandom},
	"CloudToHeightmap": {Category: "Geometry/Cloud", Setup: setupCloudToHeightmap, Compute: computeCloudToHeightmap},
	"Path":             {Category: "Geometry/Path", Setup: setupPath, Compute: computePath},
	"PathToHeightmap":  {Category: "Geometry/Path", Setup: setupPathToHeightmap, Compute: computePathToHeightmap},

	// IO
	"ExportHeightmap": {Category: "IO/Files", Setup: setupExportHeightmap, Compute: computeExportHeightmap},
	"ExportTexture":   {Category: "IO/Files", Setup: setupExportTexture, Compute: computeExportTexture},
	"ExportMesh":      {Category: "IO/Files", Setup: setupExportMesh, Compute: computeExportMesh},
	"ImportHeightmap": {Category: "IO/Files", Setup: setupImportHeightmap, Compute: computeImportHeightmap},
}

// ---------------------------------------------------------------------------
// Helpers shared by the compute functions
// ---------------------------------------------------------------------------

func heightmapIn(n *node.Node, port string) *hmap.Heightmap {
	return node.Input[*hmap.Heightmap](n, port)
}

// setupFilter declares the single input / single output layout of the
// filters.
func setupFilter(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
}

// passInput copies the input field into the output buffer and returns the
// buffer. It returns nil, and empties the output, when there is no input.
func passInput(n *node.Node) (*hmap.Heightmap, error) {
	in := heightmapIn(n, portInput)
	if in == nil {
		n.Logger().Debug("no input, output cleared", "port", portInput)
		return nil, n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return nil, err
	}
	out.CopyFrom(in)
	return out, nil
}

// pixelRadius converts a radius in domain units into pixels, at least one.
func pixelRadius(n *node.Node, r float64) int {
	return max(1, int(r*float64(n.Config.Shape.X)))
}
