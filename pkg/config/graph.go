// Package config holds the explicit configuration objects of the engine:
// GraphConfig, the storage and execution layout consulted by every node of
// a graph, and Settings, the batch driver's YAML settings file.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// Default layout values.
const (
	DefaultShape   = 1024
	DefaultTiling  = 4
	DefaultOverlap = 0.25
)

// GraphConfig is the raster layout and execution policy of one graph. It
// is created once, passed by pointer to every node of the graph and read by
// every compute.
type GraphConfig struct {
	Shape   geom.Vec2[int] `json:"shape"`
	Tiling  geom.Vec2[int] `json:"tiling"`
	Overlap float64        `json:"overlap"`

	// TransformModeCPU applies to CPU-class kernels such as erosion.
	TransformModeCPU hmap.TransformMode `json:"transform_mode_cpu"`
	// TransformModeGPU applies to accelerator-class kernels such as filters.
	TransformModeGPU hmap.TransformMode `json:"transform_mode_gpu"`

	// Executor holds runtime resources and is never persisted.
	Executor *hmap.Executor `json:"-"`
	// ExportDir is where relative export and import file names resolve.
	ExportDir string `json:"-"`
}

// DefaultGraphConfig returns a 1024x1024 field on a 4x4 tiling with a
// quarter overlap.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Shape:            geom.V2(DefaultShape, DefaultShape),
		Tiling:           geom.V2(DefaultTiling, DefaultTiling),
		Overlap:          DefaultOverlap,
		TransformModeCPU: hmap.Distributed,
		TransformModeGPU: hmap.GPU,
	}
}

// Validate reports layout values the heightmap model cannot honour.
func (c *GraphConfig) Validate() error {
	switch {
	case c.Shape.X < 1 || c.Shape.Y < 1:
		return fmt.Errorf("shape %dx%d must be positive", c.Shape.X, c.Shape.Y)
	case c.Tiling.X < 1 || c.Tiling.Y < 1:
		return fmt.Errorf("tiling %dx%d must be positive", c.Tiling.X, c.Tiling.Y)
	case c.Tiling.X > c.Shape.X || c.Tiling.Y > c.Shape.Y:
		return fmt.Errorf("tiling %dx%d exceeds shape %dx%d", c.Tiling.X, c.Tiling.Y, c.Shape.X, c.Shape.Y)
	case c.Overlap < 0 || c.Overlap > 1:
		return fmt.Errorf("overlap %g outside [0, 1]", c.Overlap)
	}
	for _, m := range []hmap.TransformMode{c.TransformModeCPU, c.TransformModeGPU} {
		if m < hmap.SingleArray || m > hmap.GPU {
			return fmt.Errorf("invalid transform mode %d", int(m))
		}
	}
	return nil
}

// KeepRuntime copies the non-persisted fields of from into c.
func (c *GraphConfig) KeepRuntime(from GraphConfig) {
	c.Executor = from.Executor
	c.ExportDir = from.ExportDir
}

// Resolve joins a relative file name onto ExportDir.
func (c *GraphConfig) Resolve(name string) string {
	if name == "" || c.ExportDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ExportDir, name)
}

// NewHeightmap allocates an empty field with this layout.
func (c *GraphConfig) NewHeightmap() *hmap.Heightmap {
	return hmap.New(c.Shape, c.Tiling, c.Overlap)
}

// NewRGBA allocates an empty texture with this layout.
func (c *GraphConfig) NewRGBA() *hmap.HeightmapRGBA {
	return hmap.NewRGBA(c.Shape, c.Tiling, c.Overlap)
}

// Fits reports whether h already uses this layout.
func (c *GraphConfig) Fits(h *hmap.Heightmap) bool {
	return h.Shape == c.Shape && h.Tiling == c.Tiling && h.Overlap == c.Overlap
}
