package nodes

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/node"
	"github.com/chazu/loam/pkg/rasterio"
	"github.com/chazu/loam/pkg/tessellate"
)

const (
	rasterFilter = "Raster (*.png *.tif *.tiff *.bmp *.cbor)"
	meshFilter   = "Mesh (*.obj *.stl)"
)

// The export nodes write their input whenever they compute and
// auto_export is set. They have no outputs.

func setupExportHeightmap(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddAttr("fname", attr.NewFilename("hmap.png", rasterFilter, true))
	n.AddAttr("auto_export", attr.NewBool(true))
}

func computeExportHeightmap(n *node.Node) error {
	in := heightmapIn(n, portInput)
	path, ok := exportPath(n, in != nil)
	if !ok {
		return nil
	}
	if err := rasterio.WriteFile(path, in.ToArray()); err != nil {
		return err
	}
	n.Logger().Info("heightmap exported", "path", path)
	return nil
}

func setupExportTexture(n *node.Node) {
	n.AddPort(node.In, portTexture, node.HeightmapRGBA)
	n.AddAttr("fname", attr.NewFilename("texture.png", rasterFilter, true))
	n.AddAttr("auto_export", attr.NewBool(true))
}

func computeExportTexture(n *node.Node) error {
	tex := node.Input[*hmap.HeightmapRGBA](n, portTexture)
	path, ok := exportPath(n, tex != nil)
	if !ok {
		return nil
	}
	if err := rasterio.WriteRGBAFile(path, tex.ToArrays()); err != nil {
		return err
	}
	n.Logger().Info("texture exported", "path", path)
	return nil
}

func setupExportMesh(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddAttr("fname", attr.NewFilename("mesh.obj", meshFilter, true))
	n.AddAttr("auto_export", attr.NewBool(true))
	n.AddAttr("elevation", attr.NewFloat(0.2, 0, 1))
	n.AddAttr("step", attr.NewInt(1, 1, 16))
}

func computeExportMesh(n *node.Node) error {
	in := heightmapIn(n, portInput)
	path, ok := exportPath(n, in != nil)
	if !ok {
		return nil
	}
	opt := tessellate.DefaultOptions()
	opt.Elevation = n.Attrs.Float("elevation")
	opt.Step = n.Attrs.Int("step")
	opt.Name = n.ID
	m, err := tessellate.Heightmap(in.ToArray(), opt)
	if err != nil {
		return err
	}

	write := tessellate.WriteOBJ
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
	case ".stl":
		write = tessellate.WriteSTL
	default:
		return fmt.Errorf("export mesh: unsupported extension %q", ext)
	}
	if err := writeMesh(path, m, write); err != nil {
		return err
	}
	n.Logger().Info("mesh exported", "path", path, "triangles", m.TriangleCount())
	return nil
}

func writeMesh(path string, m *kernel.Mesh, write func(io.Writer, *kernel.Mesh) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export mesh: %w", err)
	}
	if err := write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("export mesh %s: %w", path, err)
	}
	return f.Close()
}

// exportPath returns the target file of an export node, or false when
// there is nothing to write.
func exportPath(n *node.Node, hasInput bool) (string, bool) {
	if !n.Attrs.Bool("auto_export") {
		return "", false
	}
	if !hasInput {
		n.Logger().Debug("nothing to export")
		return "", false
	}
	path := n.Config.Resolve(n.Attrs.Filename("fname"))
	if path == "" {
		n.Logger().Warn("export skipped, empty file name")
		return "", false
	}
	return path, true
}

// ---------------------------------------------------------------------------
// ImportHeightmap
// ---------------------------------------------------------------------------

func setupImportHeightmap(n *node.Node) {
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("fname", attr.NewFilename("", rasterFilter, false))
	n.AddPostProcess()
}

// computeImportHeightmap reads the file and resamples it to the graph
// shape. An empty file name yields no data; an unreadable file fails.
func computeImportHeightmap(n *node.Node) error {
	path := n.Config.Resolve(n.Attrs.Filename("fname"))
	if path == "" {
		return n.SetValue(portOutput, nil)
	}
	a, err := rasterio.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.FromArray(a)
	return node.PostProcess(n, out)
}
