package rtin

// Mesh is a simplified grid mesh. Vertices are grid coordinates, not world
// positions; Triangles index into the vertex sequence.
type Mesh struct {
	Vertices  []uint16 // x0, y0, x1, y1, ...
	Triangles []uint32 // a0, b0, c0, a1, b1, c1, ...
}

// NumVertices returns the number of vertices.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices) / 2
}

// NumTriangles returns the number of triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.Triangles) / 3
}

// Vertex returns the grid coordinates of vertex i.
func (m *Mesh) Vertex(i int) (x, y int) {
	return int(m.Vertices[2*i]), int(m.Vertices[2*i+1])
}
