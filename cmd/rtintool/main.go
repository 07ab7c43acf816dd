// rtintool is a CLI utility for inspecting terrain-RGB tiles and the meshes
// built from them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/Faultbox/demview/internal/compositor"
	"github.com/Faultbox/demview/internal/config"
	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/internal/tiles"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "decode", "info":
		cmdDecode(args)
	case "mesh":
		cmdMesh(args)
	case "composite", "fetch":
		cmdComposite(args)
	case "scenarios":
		cmdScenarios()
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rtintool - terrain-RGB tile and mesh utility

Usage:
  rtintool <command> [options]

Commands:
  decode <tile.png>                  Show tile size and elevation range
  mesh [options] <tile.png>          Simplify a tile and report the mesh
  composite [options]                Fetch and mesh the configured tiles
  scenarios                          List the built-in scenarios
  config [options]                   Print or save a resolved config

Examples:
  rtintool decode 10-734-421.png
  rtintool mesh -tolerance 10 -flat -obj out.obj 10-734-421.png
  rtintool composite -scenario multi -dir ./tiles
  rtintool composite -config demview.yaml -token pk.xxx
  rtintool config -scenario parallax -o demview.yaml`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdDecode(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rtintool decode <tile.png>")
		os.Exit(1)
	}

	pixels, err := tiles.ReadFile(args[0])
	if err != nil {
		fail(err)
	}
	grid, err := terrainrgb.Decode(pixels)
	if err != nil {
		fail(err)
	}

	lo := grid.Data[0]
	for _, v := range grid.Data {
		lo = min(lo, v)
	}

	fmt.Printf("File:        %s\n", args[0])
	fmt.Printf("Tile size:   %dx%d px\n", grid.Size-1, grid.Size-1)
	fmt.Printf("Grid size:   %dx%d samples\n", grid.Size, grid.Size)
	fmt.Printf("Elevation:   %.1f .. %.1f m\n", lo, grid.Max())
}

func cmdMesh(args []string) {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	tolerance := fs.Float64("tolerance", 50, "maximum simplification error in meters")
	flat := fs.Bool("flat", false, "build flat-shaded geometry")
	policy := fs.String("height", "per-vertex", "height policy (per-vertex, flat-max)")
	exaggeration := fs.Float64("exaggeration", 1, "vertical exaggeration")
	objPath := fs.String("obj", "", "write the mesh as Wavefront OBJ")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rtintool mesh [options] <tile.png>")
		os.Exit(1)
	}

	pixels, err := tiles.ReadFile(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	side, err := pixels.Side()
	if err != nil {
		fail(err)
	}

	params := terrain.DefaultBuildParams()
	params.FlatShaded = *flat
	params.VerticalExaggeration = float32(*exaggeration)
	if params.HeightPolicy, err = terrain.ParseHeightPolicy(*policy); err != nil {
		fail(err)
	}

	pipeline, err := compositor.NewPipeline(side, float32(*tolerance), params)
	if err != nil {
		fail(err)
	}

	start := time.Now()
	mesh, _, err := pipeline.Run(pixels, [2]float32{})
	if err != nil {
		fail(err)
	}
	elapsed := time.Since(start)

	b := mesh.Bounds
	fmt.Printf("Tile size:   %dx%d px\n", side, side)
	fmt.Printf("Tolerance:   %g m\n", *tolerance)
	fmt.Printf("Shading:     %s\n", map[bool]string{true: "flat", false: "smooth"}[mesh.FlatShaded])
	fmt.Printf("Vertices:    %d\n", mesh.NumVertices())
	fmt.Printf("Triangles:   %d\n", mesh.NumTriangles())
	fmt.Printf("Bounds:      (%.2f, %.2f, %.2f) .. (%.2f, %.2f, %.2f)\n",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
	fmt.Printf("Built in:    %s\n", elapsed.Round(time.Microsecond))

	if *objPath != "" {
		f, err := os.Create(*objPath)
		if err != nil {
			fail(err)
		}
		if err := terrain.WriteOBJ(f, mesh); err != nil {
			f.Close()
			fail(err)
		}
		if err := f.Close(); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote:       %s\n", *objPath)
	}
}

func cmdComposite(args []string) {
	fs := flag.NewFlagSet("composite", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	scenario := fs.String("scenario", "", "scenario preset")
	dir := fs.String("dir", "", "local tile directory")
	token := fs.String("token", "", "access token for the tile service")
	tolerance := fs.Float64("tolerance", -1, "maximum simplification error in meters")
	verbose := fs.Bool("v", false, "log pipeline progress")
	fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}
	if err := config.ApplyScenario(cfg, *scenario); err != nil {
		fail(err)
	}
	if *dir != "" {
		cfg.Source.Dir = *dir
	}
	if *token != "" {
		cfg.Source.AccessToken = *token
	}
	if *tolerance >= 0 {
		cfg.Terrain.ErrorTolerance = float32(*tolerance)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fail(err)
	}
	defer logger.Sync()

	srcOpts := cfg.TileSource()
	srcOpts.RetryDelay = 500 * time.Millisecond
	src, err := tiles.New(srcOpts)
	if err != nil {
		fail(err)
	}
	opts, err := cfg.CompositorOptions()
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := compositor.Composite(ctx, cfg.CompositeTiles(), src, opts)
	if err != nil {
		fail(err)
	}
	meshes, failed := compositor.Collect(results)
	elapsed := time.Since(start)

	// Completion order is arbitrary; list by grid position
	sort.Slice(meshes, func(i, j int) bool {
		a, b := meshes[i].Tile, meshes[j].Tile
		if a.OffsetY != b.OffsetY {
			return a.OffsetY < b.OffsetY
		}
		return a.OffsetX < b.OffsetX
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TILE\tVERTICES\tTRIANGLES\tMIN Z\tMAX Z")
	var bounds terrain.Bounds
	for i, res := range meshes {
		m := res.Mesh
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\n",
			res.Tile, m.NumVertices(), m.NumTriangles(), m.Bounds.Min[2], m.Bounds.Max[2])
		if i == 0 {
			bounds = m.Bounds
		} else {
			bounds = bounds.Union(m.Bounds)
		}
	}
	w.Flush()

	fmt.Printf("\nLoaded %d/%d tiles in %s\n", len(meshes), len(meshes)+len(failed), elapsed.Round(time.Millisecond))
	if len(meshes) > 0 {
		fmt.Printf("Extent: (%.2f, %.2f, %.2f) .. (%.2f, %.2f, %.2f)\n",
			bounds.Min[0], bounds.Min[1], bounds.Min[2], bounds.Max[0], bounds.Max[1], bounds.Max[2])
	}
	for _, res := range failed {
		fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", res.Tile, res.Err)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}

func cmdScenarios() {
	for _, name := range config.Scenarios() {
		fmt.Println(name)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "config file to start from")
	scenario := fs.String("scenario", "", "scenario preset")
	output := fs.String("o", "", "write to this file instead of stdout")
	fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}
	if err := config.ApplyScenario(cfg, *scenario); err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	if *output == "" {
		data, err := cfg.Marshal()
		if err != nil {
			fail(err)
		}
		os.Stdout.Write(data)
		return
	}
	if err := cfg.SaveTo(*output); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s\n", *output)
}
