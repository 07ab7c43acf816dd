// Package compositor loads several adjacent terrain tiles concurrently and
// places each one in a shared world frame.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/internal/tiles"
)

// DefaultConcurrency bounds in-flight tiles when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Tile selects a source tile and its position in the composite, in tile units
// relative to an arbitrary origin tile.
type Tile struct {
	Zoom    uint32
	X       uint32
	Y       uint32
	OffsetX int
	OffsetY int
}

// ID returns the source address of the tile.
func (t Tile) ID() tiles.ID {
	return tiles.ID{Z: t.Zoom, X: t.X, Y: t.Y}
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d@(%d,%d)", t.Zoom, t.X, t.Y, t.OffsetX, t.OffsetY)
}

// Options configures a composite load.
type Options struct {
	TileSide          int     // Pixel side of every tile, 2^k
	ErrorTolerance    float32 // RTIN max error in meters
	MetersPerTileUnit float32 // World distance between adjacent tile origins; 0 derives it
	BuildParams       terrain.BuildParams
	Concurrency       int
}

// tileUnit returns the world-space width of one tile.
func (o Options) tileUnit() float32 {
	if o.MetersPerTileUnit > 0 {
		return o.MetersPerTileUnit
	}
	return float32(o.TileSide) * o.BuildParams.MetersPerPixel * o.BuildParams.VerticalScale
}

// Result is the outcome of one tile: either a complete mesh or an error.
type Result struct {
	Tile      Tile
	Mesh      *terrain.Mesh
	Heightmap *terrain.Heightmap
	Err       error
}

// Precondition errors returned by Composite before any tile is started.
var (
	ErrNoTiles          = errors.New("compositor: no tiles requested")
	ErrInvalidTolerance = errors.New("compositor: error tolerance must not be negative")
)

// Composite starts loading every tile and returns a channel that yields one
// Result per tile in completion order. The channel is closed once all tiles
// are finished. A failed tile never stops the others.
//
// When ctx is cancelled, tiles not yet finished report ctx.Err() or are
// dropped if nobody is receiving.
func Composite(ctx context.Context, list []Tile, src tiles.Source, opts Options) (<-chan Result, error) {
	if len(list) == 0 {
		return nil, ErrNoTiles
	}
	if opts.ErrorTolerance < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTolerance, opts.ErrorTolerance)
	}
	pipeline, err := NewPipeline(opts.TileSide, opts.ErrorTolerance, opts.BuildParams)
	if err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	unit := opts.tileUnit()

	log := logger.Named("compositor")
	log.Info("compositing tiles",
		zap.Int("tiles", len(list)),
		zap.Int("concurrency", limit),
		zap.Float32("tolerance", opts.ErrorTolerance),
		zap.Float32("tile_unit", unit))

	results := make(chan Result, len(list))

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(limit)
		for _, t := range list {
			g.Go(func() error {
				// Errors travel in the Result; returning nil keeps siblings running
				res := load(ctx, log, pipeline, src, t, unit)
				// results holds every tile, so the send never blocks; a tile
				// finished after cancellation is reported as cancelled instead.
				if res.Err == nil && ctx.Err() != nil {
					res = Result{Tile: res.Tile, Err: ctx.Err()}
				}
				results <- res
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results, nil
}

func load(ctx context.Context, log *zap.Logger, p *Pipeline, src tiles.Source, t Tile, unit float32) Result {
	if err := ctx.Err(); err != nil {
		return Result{Tile: t, Err: err}
	}

	start := time.Now()
	pixels, err := src.Fetch(ctx, t.ID())
	if err != nil {
		log.Warn("tile fetch failed", zap.Stringer("tile", t), zap.Error(err))
		return Result{Tile: t, Err: err}
	}
	fetched := time.Since(start)

	offset := [2]float32{float32(t.OffsetX) * unit, float32(t.OffsetY) * unit}
	mesh, heightmap, err := p.Run(pixels, offset)
	if err != nil {
		if errors.Is(err, terrain.ErrIndexOutOfRange) {
			log.Error("tile geometry rejected", zap.Stringer("tile", t), zap.Error(err))
		} else {
			log.Warn("tile build failed", zap.Stringer("tile", t), zap.Error(err))
		}
		return Result{Tile: t, Err: fmt.Errorf("tile %s: %w", t, err)}
	}
	if err := ctx.Err(); err != nil {
		return Result{Tile: t, Err: err}
	}

	log.Debug("tile ready",
		zap.Stringer("tile", t),
		zap.Int("vertices", mesh.NumVertices()),
		zap.Int("triangles", mesh.NumTriangles()),
		zap.Duration("fetch", fetched),
		zap.Duration("total", time.Since(start)))

	return Result{Tile: t, Mesh: mesh, Heightmap: heightmap}
}

// Collect drains a result channel, separating meshes from failures.
func Collect(results <-chan Result) (meshes []Result, failed []Result) {
	for res := range results {
		if res.Err != nil {
			failed = append(failed, res)
			continue
		}
		meshes = append(meshes, res)
	}
	return meshes, failed
}
