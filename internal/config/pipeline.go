package config

import (
	"github.com/Faultbox/demview/internal/compositor"
	"github.com/Faultbox/demview/internal/tiles"
)

// TileSource returns the options for the tile fetch chain.
func (c *Config) TileSource() tiles.Options {
	return tiles.Options{
		URLTemplate: c.Source.URLTemplate,
		AccessToken: c.Source.AccessToken,
		Dir:         c.Source.Dir,
		Timeout:     c.Source.Timeout,
		Retries:     c.Source.Retries,
		CacheSize:   c.Source.CacheSize,
	}
}

// CompositeTiles returns the configured tile list.
func (c *Config) CompositeTiles() []compositor.Tile {
	out := make([]compositor.Tile, len(c.Terrain.Tiles))
	for i, t := range c.Terrain.Tiles {
		out[i] = compositor.Tile{
			Zoom:    t.Zoom,
			X:       t.X,
			Y:       t.Y,
			OffsetX: t.OffsetX,
			OffsetY: t.OffsetY,
		}
	}
	return out
}

// CompositorOptions returns the mesh pipeline settings.
func (c *Config) CompositorOptions() (compositor.Options, error) {
	params, err := c.Terrain.BuildParams()
	if err != nil {
		return compositor.Options{}, err
	}
	return compositor.Options{
		TileSide:          c.Terrain.TileSidePixels,
		ErrorTolerance:    c.Terrain.ErrorTolerance,
		MetersPerTileUnit: c.Terrain.MetersPerTileUnit,
		BuildParams:       params,
		Concurrency:       c.Source.Concurrency,
	}, nil
}
