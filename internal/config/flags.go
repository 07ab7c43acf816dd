package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScenario   = flag.String("scenario", "", "Viewer preset (single, wireframe, flat-max, parallax, multi)")
	flagTolerance  = flag.Float64("tolerance", -1, "Mesh error tolerance in meters")
	flagFlat       = flag.Bool("flat", false, "Use flat shading")
	flagWireframe  = flag.Bool("wireframe", false, "Start in wireframe mode")
	flagTileDir    = flag.String("tiles", "", "Read tiles from a local {z}/{x}/{y}.png directory")
	flagToken      = flag.String("token", "", "Access token for the tile URL template")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagScenario != "" {
		if err := ApplyScenario(cfg, *flagScenario); err != nil {
			return err
		}
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTolerance >= 0 {
		cfg.Terrain.ErrorTolerance = float32(*flagTolerance)
	}
	if *flagFlat {
		cfg.Terrain.FlatShaded = true
	}
	if *flagWireframe {
		cfg.Graphics.Wireframe = true
	}
	if *flagTileDir != "" {
		cfg.Source.Dir = *flagTileDir
	}
	if *flagToken != "" {
		cfg.Source.AccessToken = *flagToken
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	return nil
}
