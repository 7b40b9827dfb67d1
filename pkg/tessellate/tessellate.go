// Package tessellate turns a heightmap into an indexed triangle mesh and
// writes meshes as Wavefront OBJ or binary STL.
package tessellate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel"
)

// Options controls the triangulation of a heightmap.
type Options struct {
	// Width and Depth are the extents of the mesh along x and y.
	Width, Depth float64
	// Elevation scales the heightmap values along z.
	Elevation float64
	// Step keeps one sample every Step pixels. Values below 1 mean 1.
	Step int
	Name string
}

// DefaultOptions returns a unit square with a quarter-unit elevation.
func DefaultOptions() Options {
	return Options{Width: 1, Depth: 1, Elevation: 0.25, Step: 1}
}

// Heightmap triangulates a as a regular grid: one vertex per kept sample,
// two triangles per grid cell, smooth per-vertex normals and planar UVs.
func Heightmap(a *hmap.Array, opt Options) (*kernel.Mesh, error) {
	step := max(1, opt.Step)
	if a == nil || a.Shape.X < 2 || a.Shape.Y < 2 {
		return nil, fmt.Errorf("tessellate: heightmap must be at least 2x2")
	}
	nx := (a.Shape.X-1)/step + 1
	ny := (a.Shape.Y-1)/step + 1
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("tessellate: step %d leaves fewer than 2x2 samples", step)
	}

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, nx*ny*3),
		Normals:  make([]float32, 0, nx*ny*3),
		UVs:      make([]float32, 0, nx*ny*2),
		Indices:  make([]uint32, 0, (nx-1)*(ny-1)*6),
		Name:     opt.Name,
	}

	dx := opt.Width / float64(nx-1)
	dy := opt.Depth / float64(ny-1)
	z := func(i, j int) float64 {
		i = min(max(i, 0), nx-1)
		j = min(max(j, 0), ny-1)
		return float64(a.At(i*step, j*step)) * opt.Elevation
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			u := float64(i) / float64(nx-1)
			v := float64(j) / float64(ny-1)
			m.Vertices = append(m.Vertices, float32(u*opt.Width), float32(v*opt.Depth), float32(z(i, j)))
			m.UVs = append(m.UVs, float32(u), float32(v))

			gx := (z(i+1, j) - z(i-1, j)) / (2 * dx)
			gy := (z(i, j+1) - z(i, j-1)) / (2 * dy)
			inv := 1 / math.Sqrt(gx*gx+gy*gy+1)
			m.Normals = append(m.Normals, float32(-gx*inv), float32(-gy*inv), float32(inv))
		}
	}

	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			p := uint32(j*nx + i)
			q := p + uint32(nx)
			m.Indices = append(m.Indices, p, p+1, q+1, p, q+1, q)
		}
	}
	return m, nil
}

// WriteOBJ writes m as a Wavefront OBJ document with normals and texture
// coordinates.
func WriteOBJ(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}
	for k := 0; k+2 < len(m.Vertices); k += 3 {
		fmt.Fprintf(bw, "v %g %g %g\n", m.Vertices[k], m.Vertices[k+1], m.Vertices[k+2])
	}
	for k := 0; k+1 < len(m.UVs); k += 2 {
		fmt.Fprintf(bw, "vt %g %g\n", m.UVs[k], m.UVs[k+1])
	}
	for k := 0; k+2 < len(m.Normals); k += 3 {
		fmt.Fprintf(bw, "vn %g %g %g\n", m.Normals[k], m.Normals[k+1], m.Normals[k+2])
	}
	hasUV := len(m.UVs) > 0
	for k := 0; k+2 < len(m.Indices); k += 3 {
		bw.WriteString("f")
		for c := 0; c < 3; c++ {
			i := m.Indices[k+c] + 1
			if hasUV {
				fmt.Fprintf(bw, " %d/%d/%d", i, i, i)
			} else {
				fmt.Fprintf(bw, " %d//%d", i, i)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteSTL writes m as a binary STL document with per-face normals.
func WriteSTL(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	var header [80]byte
	copy(header[:], "loam "+m.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return err
	}

	vert := func(i uint32) [3]float32 {
		return [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
	}
	for k := 0; k+2 < len(m.Indices); k += 3 {
		a, b, c := vert(m.Indices[k]), vert(m.Indices[k+1]), vert(m.Indices[k+2])
		rec := struct {
			Normal  [3]float32
			V       [3][3]float32
			Attribs uint16
		}{Normal: faceNormal(a, b, c), V: [3][3]float32{a, b, c}}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func faceNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float64{float64(b[0] - a[0]), float64(b[1] - a[1]), float64(b[2] - a[2])}
	v := [3]float64{float64(c[0] - a[0]), float64(c[1] - a[1]), float64(c[2] - a[2])}
	n := [3]float64{u[1]*v[2] - u[2]*v[1], u[2]*v[0] - u[0]*v[2], u[0]*v[1] - u[1]*v[0]}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}
