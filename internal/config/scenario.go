package config

import (
	"fmt"
	"sort"
)

// Scenario adjusts a config to reproduce one of the classic viewer setups.
type Scenario func(cfg *Config)

var scenarios = map[string]Scenario{
	// One tile, smooth shading, 50 m tolerance.
	"single": func(cfg *Config) {},

	"wireframe": func(cfg *Config) {
		cfg.Graphics.Wireframe = true
		cfg.Terrain.FlatShaded = true
	},

	// Reference plane at the tile's peak.
	"flat-max": func(cfg *Config) {
		cfg.Terrain.FlatShaded = true
		cfg.Terrain.HeightPolicy = "flat-max"
		cfg.Terrain.ElevationOffset = 4
	},

	"parallax": func(cfg *Config) {
		cfg.Terrain.FlatShaded = true
		cfg.Terrain.VerticalExaggeration = 2
		cfg.Terrain.ErrorTolerance = 100
	},

	// 2x2 block around the default tile.
	"multi": func(cfg *Config) {
		cfg.Terrain.FlatShaded = true
		cfg.Terrain.VerticalExaggeration = 3
		cfg.Terrain.ElevationOffset = 4
		cfg.Terrain.ErrorTolerance = 400
		cfg.Terrain.Tiles = []TileConfig{
			{Zoom: 10, X: 734, Y: 421, OffsetX: 0, OffsetY: 0},
			{Zoom: 10, X: 735, Y: 421, OffsetX: 1, OffsetY: 0},
			{Zoom: 10, X: 734, Y: 422, OffsetX: 0, OffsetY: 1},
			{Zoom: 10, X: 735, Y: 422, OffsetX: 1, OffsetY: 1},
		}
	},
}

// Scenarios returns the names of all presets.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyScenario applies the named preset to cfg. An empty name is a no-op.
func ApplyScenario(cfg *Config, name string) error {
	if name == "" {
		return nil
	}
	apply, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q (available: %v)", name, Scenarios())
	}
	apply(cfg)
	cfg.Scenario = name
	return nil
}
