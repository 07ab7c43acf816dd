package compositor

import (
	"fmt"

	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/pkg/rtin"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// Pipeline turns tile pixels into a render mesh: decode, simplify, build.
// It holds no per-tile state and is safe for concurrent use.
type Pipeline struct {
	martini   *rtin.Martini
	tolerance float32
	params    terrain.BuildParams
}

// NewPipeline prepares the simplifier for tiles of tileSide pixels.
func NewPipeline(tileSide int, tolerance float32, params terrain.BuildParams) (*Pipeline, error) {
	martini, err := rtin.New(tileSide + 1)
	if err != nil {
		return nil, fmt.Errorf("tile side %d: %w", tileSide, err)
	}
	return &Pipeline{
		martini:   martini,
		tolerance: tolerance,
		params:    params,
	}, nil
}

// TileSide returns the pixel side length the pipeline accepts.
func (p *Pipeline) TileSide() int {
	return p.martini.GridSize() - 1
}

// Run builds a mesh placed at offset in world space, along with a heightmap
// of the full-resolution surface under it.
func (p *Pipeline) Run(pixels terrainrgb.Pixels, offset [2]float32) (*terrain.Mesh, *terrain.Heightmap, error) {
	grid, err := terrainrgb.Decode(pixels)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	if grid.Size != p.martini.GridSize() {
		return nil, nil, fmt.Errorf("decode: tile is %d pixels, expected %d: %w",
			grid.Size-1, p.TileSide(), terrainrgb.ErrInvalidInput)
	}

	tile, err := p.martini.CreateTile(grid.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("simplify: %w", err)
	}
	simplified := tile.Mesh(p.tolerance)

	params := p.params
	params.TileOffset = offset
	mesh, err := terrain.Build(simplified, grid, params)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	return mesh, terrain.NewHeightmap(grid, params), nil
}
