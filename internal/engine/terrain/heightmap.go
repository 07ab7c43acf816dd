package terrain

import (
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// Heightmap answers world-space height queries against a decoded tile,
// using the same scaling as Build.
type Heightmap struct {
	grid   *terrainrgb.Grid
	params BuildParams
}

// NewHeightmap wraps a decoded grid with the parameters its mesh was built with.
func NewHeightmap(grid *terrainrgb.Grid, p BuildParams) *Heightmap {
	return &Heightmap{grid: grid, params: p}
}

// Contains reports whether a world XY position lies over this tile.
func (h *Heightmap) Contains(worldX, worldY float32) bool {
	gx, gy := h.toGrid(worldX, worldY)
	last := float32(h.grid.Size - 1)
	return gx >= 0 && gy >= 0 && gx <= last && gy <= last
}

// HeightAt returns the world Z of the full-resolution surface at a world XY
// position, bilinearly interpolated and clamped to the tile edges.
func (h *Heightmap) HeightAt(worldX, worldY float32) float32 {
	p := h.params
	vertical := p.VerticalScale * p.VerticalExaggeration
	if p.HeightPolicy == HeightFlatMax {
		return h.grid.Max()*vertical + p.ElevationOffset
	}

	gx, gy := h.toGrid(worldX, worldY)
	last := h.grid.Size - 1
	gx = clampf(gx, 0, float32(last))
	gy = clampf(gy, 0, float32(last))

	cellX := int(gx)
	cellY := int(gy)
	if cellX >= last {
		cellX = last - 1
	}
	if cellY >= last {
		cellY = last - 1
	}
	fracX := gx - float32(cellX)
	fracY := gy - float32(cellY)

	top := h.grid.At(cellX, cellY)*(1-fracX) + h.grid.At(cellX+1, cellY)*fracX
	bottom := h.grid.At(cellX, cellY+1)*(1-fracX) + h.grid.At(cellX+1, cellY+1)*fracX
	elevation := top*(1-fracY) + bottom*fracY

	return elevation*vertical + p.ElevationOffset
}

func (h *Heightmap) toGrid(worldX, worldY float32) (float32, float32) {
	step := h.params.MetersPerPixel * h.params.VerticalScale
	if step == 0 {
		return 0, 0
	}
	return (worldX - h.params.TileOffset[0]) / step, (worldY - h.params.TileOffset[1]) / step
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
