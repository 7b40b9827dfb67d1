package kernel

// Mesh is an indexed triangle mesh. Arrays are flat: Vertices and Normals
// hold 3 floats per vertex, Indices 3 entries per triangle, UVs 2 floats
// per vertex.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs,omitempty"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh yields zero vectors.
func (m *Mesh) Bounds() (lo, hi [3]float32) {
	if m.IsEmpty() {
		return lo, hi
	}
	copy(lo[:], m.Vertices[:3])
	copy(hi[:], m.Vertices[:3])
	for k := 3; k < len(m.Vertices); k += 3 {
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], m.Vertices[k+c])
			hi[c] = max(hi[c], m.Vertices[k+c])
		}
	}
	return lo, hi
}
