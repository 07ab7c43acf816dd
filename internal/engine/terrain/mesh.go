package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/demview/pkg/math"
	"github.com/Faultbox/demview/pkg/rtin"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// ErrIndexOutOfRange is returned when a simplified mesh references a vertex
// it does not have, or a vertex outside the elevation grid.
var ErrIndexOutOfRange = errors.New("terrain: index out of range")

// Build converts a simplified mesh into world-space geometry.
//
// Triangle winding is reversed once here: RTIN emits triangles clockwise in
// the grid frame and the renderer treats counter-clockwise as front facing.
// The input mesh is not modified.
func Build(mesh *rtin.Mesh, grid *terrainrgb.Grid, p BuildParams) (*Mesh, error) {
	if err := validate(mesh, grid); err != nil {
		return nil, err
	}

	triangles := make([]uint32, len(mesh.Triangles))
	copy(triangles, mesh.Triangles)
	FlipWinding(triangles)

	positions, uvs := buildVertices(mesh, grid, p)

	var out *Mesh
	if p.FlatShaded {
		out = buildFlat(positions, uvs, triangles)
	} else {
		out = &Mesh{
			Positions: positions,
			UVs:       uvs,
			Indices:   triangles,
		}
	}

	out.Bounds = computeBounds(out.Positions)
	ComputeNormals(out)
	return out, nil
}

// FlipWinding swaps the second and third index of every triangle.
// Applying it twice restores the original order.
func FlipWinding(indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
}

func validate(mesh *rtin.Mesh, grid *terrainrgb.Grid) error {
	if len(mesh.Triangles)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrIndexOutOfRange, len(mesh.Triangles))
	}
	numVertices := uint32(mesh.NumVertices())
	for i, idx := range mesh.Triangles {
		if idx >= numVertices {
			return fmt.Errorf("%w: triangle index %d is %d, mesh has %d vertices", ErrIndexOutOfRange, i, idx, numVertices)
		}
	}
	for i := range mesh.NumVertices() {
		x, y := mesh.Vertex(i)
		if x >= grid.Size || y >= grid.Size {
			return fmt.Errorf("%w: vertex %d (%d,%d) outside %dx%d grid", ErrIndexOutOfRange, i, x, y, grid.Size, grid.Size)
		}
	}
	return nil
}

// buildVertices maps every simplified vertex to its world position and UV.
func buildVertices(mesh *rtin.Mesh, grid *terrainrgb.Grid, p BuildParams) ([][3]float32, [][2]float32) {
	n := mesh.NumVertices()
	positions := make([][3]float32, n)
	uvs := make([][2]float32, n)

	horizontal := p.MetersPerPixel * p.VerticalScale
	vertical := p.VerticalScale * p.VerticalExaggeration
	gridSide := float32(grid.Size)

	var flatHeight float32
	if p.HeightPolicy == HeightFlatMax {
		flatHeight = grid.Max()
	}

	for i := range n {
		x, y := mesh.Vertex(i)
		h := flatHeight
		if p.HeightPolicy == HeightPerVertex {
			h = grid.At(x, y)
		}

		positions[i] = [3]float32{
			float32(x)*horizontal + p.TileOffset[0],
			float32(y)*horizontal + p.TileOffset[1],
			h*vertical + p.ElevationOffset,
		}
		// V is flipped: image rows grow downward, texture V grows upward
		uvs[i] = [2]float32{
			float32(x) / gridSide,
			1 - float32(y)/gridSide,
		}
	}
	return positions, uvs
}

// buildFlat gives each triangle its own three vertices so normals are not
// shared across faces. Triangles must already have corrected winding; the
// output index buffer is 0..3T-1 in emission order.
func buildFlat(positions [][3]float32, uvs [][2]float32, triangles []uint32) *Mesh {
	n := len(triangles)
	out := &Mesh{
		Positions:      make([][3]float32, n),
		UVs:            make([][2]float32, n),
		PlanePositions: make([][3]float32, n),
		Indices:        make([]uint32, n),
		FlatShaded:     true,
	}

	for i := 0; i < n; i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		centroid := math.Centroid(math.V3(positions[a]), math.V3(positions[b]), math.V3(positions[c])).Array()

		for j, v := range [3]uint32{a, b, c} {
			k := i + j
			out.Positions[k] = positions[v]
			out.UVs[k] = uvs[v]
			out.PlanePositions[k] = centroid
			out.Indices[k] = uint32(k)
		}
	}
	return out
}

// ComputeNormals sets area-weighted vertex normals from the mesh triangles.
// Vertices of a flat-shaded mesh belong to one triangle and get its face normal.
func ComputeNormals(m *Mesh) {
	sums := make([]math.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		pa, pb, pc := math.V3(m.Positions[a]), math.V3(m.Positions[b]), math.V3(m.Positions[c])
		// Unnormalized, so larger triangles weigh more
		face := pb.Sub(pa).Cross(pc.Sub(pa))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}

	m.Normals = make([][3]float32, len(m.Positions))
	for i, s := range sums {
		n := s.Normalize()
		if n == (math.Vec3{}) {
			n = math.Vec3{Z: 1}
		}
		m.Normals[i] = n.Array()
	}
}

func computeBounds(positions [][3]float32) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		updateBounds(&b, p)
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
