package terrain

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ writes the mesh as a Wavefront OBJ with positions, texture
// coordinates and normals. Face indices are 1-based as the format requires.
func WriteOBJ(w io.Writer, m *Mesh) error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrIndexOutOfRange, len(m.Indices))
	}
	bw := bufio.NewWriter(w)

	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv[0], uv[1])
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}

	count := uint32(len(m.Positions))
	for i := 0; i < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if a >= count || b >= count || c >= count {
			return fmt.Errorf("%w: triangle %d references vertex beyond %d", ErrIndexOutOfRange, i/3, count)
		}
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n",
			a+1, a+1, a+1, b+1, b+1, b+1, c+1, c+1, c+1)
	}

	return bw.Flush()
}
