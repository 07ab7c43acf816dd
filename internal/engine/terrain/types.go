// Package terrain turns simplified RTIN meshes into render-ready geometry.
package terrain

import "fmt"

// HeightPolicy selects where vertex elevation comes from.
type HeightPolicy int

const (
	// HeightPerVertex uses the decoded elevation at each vertex.
	HeightPerVertex HeightPolicy = iota
	// HeightFlatMax puts every vertex at the tile's maximum elevation,
	// giving a flat reference plane at the peak height.
	HeightFlatMax
)

// ParseHeightPolicy parses the config spelling of a height policy.
func ParseHeightPolicy(s string) (HeightPolicy, error) {
	switch s {
	case "", "per-vertex":
		return HeightPerVertex, nil
	case "flat-max":
		return HeightFlatMax, nil
	}
	return 0, fmt.Errorf("unknown height policy %q", s)
}

func (p HeightPolicy) String() string {
	switch p {
	case HeightPerVertex:
		return "per-vertex"
	case HeightFlatMax:
		return "flat-max"
	}
	return fmt.Sprintf("HeightPolicy(%d)", int(p))
}

// BuildParams controls how grid-space meshes map to world space.
type BuildParams struct {
	MetersPerPixel       float32 // Ground sample distance of the source tile
	VerticalScale        float32 // Unit normalization applied to all three axes
	VerticalExaggeration float32 // Extra multiplier on elevation only
	ElevationOffset      float32 // Added to Z after scaling, in world units
	FlatShaded           bool    // One vertex triple per triangle
	HeightPolicy         HeightPolicy
	TileOffset           [2]float32 // World-space XY translation of the tile
}

// DefaultBuildParams returns the parameters of the single-tile viewer.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		MetersPerPixel:       124.73948277849482,
		VerticalScale:        0.01,
		VerticalExaggeration: 1,
	}
}

// Mesh is render-ready terrain geometry stored as parallel attribute arrays.
// PlanePositions is only set for flat-shaded meshes; each entry is the world
// centroid of the triangle its vertex belongs to.
type Mesh struct {
	Positions      [][3]float32
	UVs            [][2]float32
	Normals        [][3]float32
	PlanePositions [][3]float32
	Indices        []uint32
	Bounds         Bounds
	FlatShaded     bool
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int {
	return len(m.Positions)
}

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	updateBounds(&b, o.Min)
	updateBounds(&b, o.Max)
	return b
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Vertex is the interleaved GPU layout of one mesh vertex.
type Vertex struct {
	Position      [3]float32
	Normal        [3]float32
	TexCoord      [2]float32
	PlanePosition [3]float32
}

// Interleave packs the attribute arrays into GPU vertices. Smooth meshes
// use the vertex position as plane position so one shader serves both modes.
func (m *Mesh) Interleave() []Vertex {
	out := make([]Vertex, len(m.Positions))
	for i := range out {
		out[i].Position = m.Positions[i]
		out[i].PlanePosition = m.Positions[i]
		if i < len(m.Normals) {
			out[i].Normal = m.Normals[i]
		}
		if i < len(m.UVs) {
			out[i].TexCoord = m.UVs[i]
		}
		if i < len(m.PlanePositions) {
			out[i].PlanePosition = m.PlanePositions[i]
		}
	}
	return out
}
