// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/pkg/rtin"
)

// Config holds all viewer settings.
type Config struct {
	Scenario string         `yaml:"scenario"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Source   SourceConfig   `yaml:"source"`
	Camera   CameraConfig   `yaml:"camera"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"`
	MSAA       int  `yaml:"msaa"` // Samples per pixel, 0 disables
}

// TerrainConfig controls mesh generation.
type TerrainConfig struct {
	TileSidePixels       int          `yaml:"tile_side_pixels"`
	MetersPerPixel       float32      `yaml:"meters_per_pixel"`
	VerticalScale        float32      `yaml:"vertical_scale"`
	VerticalExaggeration float32      `yaml:"vertical_exaggeration"`
	ElevationOffset      float32      `yaml:"elevation_offset"`
	ErrorTolerance       float32      `yaml:"error_tolerance"`
	FlatShaded           bool         `yaml:"flat_shaded"`
	HeightPolicy         string       `yaml:"height_policy"`
	MetersPerTileUnit    float32      `yaml:"meters_per_tile_unit"` // 0 derives it from the tile side
	Tiles                []TileConfig `yaml:"tiles"`
}

// TileConfig places one source tile in the composite.
type TileConfig struct {
	Zoom    uint32 `yaml:"zoom"`
	X       uint32 `yaml:"x"`
	Y       uint32 `yaml:"y"`
	OffsetX int    `yaml:"offset_x"`
	OffsetY int    `yaml:"offset_y"`
}

// SourceConfig selects where tiles come from.
type SourceConfig struct {
	URLTemplate string        `yaml:"url_template"`
	AccessToken string        `yaml:"access_token"`
	Dir         string        `yaml:"dir"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	CacheSize   int           `yaml:"cache_size"`
	Concurrency int           `yaml:"concurrency"`
}

// String formats the source settings with the access token masked, so
// configs can be dumped to logs.
func (s SourceConfig) String() string {
	token := ""
	if s.AccessToken != "" {
		token = "<redacted>"
	}
	return fmt.Sprintf("{URLTemplate:%s AccessToken:%s Dir:%s Timeout:%v Retries:%d CacheSize:%d Concurrency:%d}",
		redactToken(s.URLTemplate, s.AccessToken), token, s.Dir, s.Timeout, s.Retries, s.CacheSize, s.Concurrency)
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<redacted>")
}

// CameraConfig holds the initial orbit camera.
type CameraConfig struct {
	Distance float32 `yaml:"distance"`
	Pitch    float32 `yaml:"pitch"`
	Yaw      float32 `yaml:"yaw"`
	FOV      float32 `yaml:"fov"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DefaultURLTemplate is the Mapbox terrain-RGB endpoint.
const DefaultURLTemplate = "https://api.mapbox.com/v4/mapbox.terrain-rgb/{z}/{x}/{y}.pngraw?access_token={token}"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scenario: "",
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Wireframe:  false,
			MSAA:       4,
		},
		Terrain: TerrainConfig{
			TileSidePixels:       256,
			MetersPerPixel:       124.73948277849482,
			VerticalScale:        0.01,
			VerticalExaggeration: 1,
			ErrorTolerance:       50,
			HeightPolicy:         "per-vertex",
			Tiles:                []TileConfig{{Zoom: 10, X: 734, Y: 421}},
		},
		Source: SourceConfig{
			URLTemplate: DefaultURLTemplate,
			Timeout:     15 * time.Second,
			Retries:     2,
			CacheSize:   64,
			Concurrency: 4,
		},
		Camera: CameraConfig{
			Distance: 400,
			Pitch:    0.8,
			Yaw:      0,
			FOV:      90,
			Near:     0.1,
			Far:      1000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// BuildParams converts the terrain section into geometry build parameters.
func (t TerrainConfig) BuildParams() (terrain.BuildParams, error) {
	policy, err := terrain.ParseHeightPolicy(t.HeightPolicy)
	if err != nil {
		return terrain.BuildParams{}, err
	}
	return terrain.BuildParams{
		MetersPerPixel:       t.MetersPerPixel,
		VerticalScale:        t.VerticalScale,
		VerticalExaggeration: t.VerticalExaggeration,
		ElevationOffset:      t.ElevationOffset,
		FlatShaded:           t.FlatShaded,
		HeightPolicy:         policy,
	}, nil
}

// Validate reports every setting the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	t := c.Terrain

	if !rtin.ValidGridSize(t.TileSidePixels + 1) {
		errs = append(errs, fmt.Errorf("terrain.tile_side_pixels: %d is not a power of two", t.TileSidePixels))
	}
	if t.MetersPerPixel <= 0 {
		errs = append(errs, fmt.Errorf("terrain.meters_per_pixel: must be positive, got %v", t.MetersPerPixel))
	}
	if t.VerticalScale <= 0 {
		errs = append(errs, fmt.Errorf("terrain.vertical_scale: must be positive, got %v", t.VerticalScale))
	}
	if t.ErrorTolerance < 0 {
		errs = append(errs, fmt.Errorf("terrain.error_tolerance: must not be negative, got %v", t.ErrorTolerance))
	}
	if t.MetersPerTileUnit < 0 {
		errs = append(errs, fmt.Errorf("terrain.meters_per_tile_unit: must not be negative, got %v", t.MetersPerTileUnit))
	}
	if _, err := terrain.ParseHeightPolicy(t.HeightPolicy); err != nil {
		errs = append(errs, fmt.Errorf("terrain.height_policy: %w", err))
	}
	if len(t.Tiles) == 0 {
		errs = append(errs, errors.New("terrain.tiles: at least one tile is required"))
	}
	for i, tile := range t.Tiles {
		if tile.Zoom >= 32 || tile.X >= 1<<tile.Zoom || tile.Y >= 1<<tile.Zoom {
			errs = append(errs, fmt.Errorf("terrain.tiles[%d]: %d/%d/%d does not exist", i, tile.Zoom, tile.X, tile.Y))
		}
	}

	if c.Source.Dir == "" && c.Source.URLTemplate == "" {
		errs = append(errs, errors.New("source: either dir or url_template is required"))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("source.timeout: must be positive, got %v", c.Source.Timeout))
	}

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.MSAA < 0 || c.Graphics.MSAA > 16 {
		errs = append(errs, fmt.Errorf("graphics.msaa: %d samples out of range 0-16", c.Graphics.MSAA))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	return errors.Join(errs...)
}
