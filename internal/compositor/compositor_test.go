package compositor

import (
	"context"
	"errors"
	gomath "math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/internal/tiles"
	"github.com/Faultbox/demview/pkg/rtin"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// slopeSource serves side x side tiles whose elevation rises along X.
func slopeSource(side int) tiles.Source {
	return tiles.SourceFunc(func(ctx context.Context, id tiles.ID) (terrainrgb.Pixels, error) {
		pixels := make(terrainrgb.Pixels, side*side*4)
		for y := range side {
			for x := range side {
				r, g, b := terrainrgb.Encode(float64(x * 100))
				i := (y*side + x) * 4
				pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = r, g, b, 255
			}
		}
		return pixels, nil
	})
}

func testOptions() Options {
	return Options{
		TileSide:          8,
		ErrorTolerance:    1,
		MetersPerTileUnit: 100,
		BuildParams:       terrain.DefaultBuildParams(),
		Concurrency:       2,
	}
}

func xRange(m *terrain.Mesh) (float32, float32) {
	lo, hi := m.Positions[0][0], m.Positions[0][0]
	for _, p := range m.Positions {
		lo = min(lo, p[0])
		hi = max(hi, p[0])
	}
	return lo, hi
}

func TestComposite_Offsets(t *testing.T) {
	list := []Tile{
		{Zoom: 3, X: 1, Y: 1, OffsetX: 0},
		{Zoom: 3, X: 2, Y: 1, OffsetX: 1},
	}
	opts := testOptions()

	results, err := Composite(context.Background(), list, slopeSource(8), opts)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	meshes, failed := Collect(results)
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed[0].Err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}

	byOffset := map[int]*terrain.Mesh{}
	for _, r := range meshes {
		byOffset[r.Tile.OffsetX] = r.Mesh
	}
	lo0, hi0 := xRange(byOffset[0])
	lo1, hi1 := xRange(byOffset[1])
	if lo1-lo0 != opts.MetersPerTileUnit {
		t.Errorf("expected min X offset %v, got %v", opts.MetersPerTileUnit, lo1-lo0)
	}
	if d := hi1 - hi0 - opts.MetersPerTileUnit; d > 1e-3 || d < -1e-3 {
		t.Errorf("expected max X offset %v, got %v", opts.MetersPerTileUnit, hi1-hi0)
	}
}

func TestComposite_PartialFailure(t *testing.T) {
	fail := tiles.ID{Z: 4, X: 2, Y: 5}
	ok := slopeSource(8)
	src := tiles.SourceFunc(func(ctx context.Context, id tiles.ID) (terrainrgb.Pixels, error) {
		if id == fail {
			return nil, &tiles.FetchError{Tile: id, StatusCode: 404, Err: errors.New("not found")}
		}
		return ok.Fetch(ctx, id)
	})

	list := []Tile{
		{Zoom: 4, X: 1, Y: 5, OffsetX: 0},
		{Zoom: 4, X: 2, Y: 5, OffsetX: 1},
		{Zoom: 4, X: 1, Y: 6, OffsetY: 1},
		{Zoom: 4, X: 2, Y: 6, OffsetX: 1, OffsetY: 1},
	}

	results, err := Composite(context.Background(), list, src, testOptions())
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	meshes, failed := Collect(results)
	if len(meshes) != 3 {
		t.Errorf("expected 3 meshes, got %d", len(meshes))
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].Tile.ID() != fail {
		t.Errorf("expected failure for %v, got %v", fail, failed[0].Tile)
	}
	var fe *tiles.FetchError
	if !errors.As(failed[0].Err, &fe) {
		t.Errorf("expected *tiles.FetchError, got %T", failed[0].Err)
	}
	if failed[0].Mesh != nil {
		t.Error("failed tile must not carry a mesh")
	}
}

func TestComposite_Preconditions(t *testing.T) {
	one := []Tile{{Zoom: 1}}
	tests := []struct {
		name    string
		list    []Tile
		modify  func(*Options)
		wantErr error
	}{
		{"no tiles", nil, func(*Options) {}, ErrNoTiles},
		{"negative tolerance", one, func(o *Options) { o.ErrorTolerance = -1 }, ErrInvalidTolerance},
		{"tile side not power of two", one, func(o *Options) { o.TileSide = 10 }, rtin.ErrInvalidGridSize},
		{"zero tile side", one, func(o *Options) { o.TileSide = 0 }, rtin.ErrInvalidGridSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			src := tiles.SourceFunc(func(ctx context.Context, id tiles.ID) (terrainrgb.Pixels, error) {
				calls.Add(1)
				return terrainrgb.Fill(8, 0, 0, 0), nil
			})
			opts := testOptions()
			tt.modify(&opts)

			results, err := Composite(context.Background(), tt.list, src, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if results != nil {
				t.Error("expected nil channel on precondition error")
			}
			if calls.Load() != 0 {
				t.Error("no tile should be fetched")
			}
		})
	}
}

func TestComposite_WrongTileSize(t *testing.T) {
	list := []Tile{{Zoom: 2, X: 1, Y: 1}}
	results, err := Composite(context.Background(), list, slopeSource(16), testOptions())
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	meshes, failed := Collect(results)
	if len(meshes) != 0 || len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d meshes and %d failures", len(meshes), len(failed))
	}
	if !errors.Is(failed[0].Err, terrainrgb.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", failed[0].Err)
	}
}

func TestComposite_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := tiles.SourceFunc(func(ctx context.Context, id tiles.ID) (terrainrgb.Pixels, error) {
		<-ctx.Done()
		return nil, &tiles.FetchError{Tile: id, Err: ctx.Err()}
	})

	list := []Tile{{Zoom: 1, X: 0}, {Zoom: 1, X: 1}, {Zoom: 1, Y: 1}}
	results, err := Composite(ctx, list, src, testOptions())
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			if res.Mesh != nil {
				t.Error("cancelled composite published a mesh")
			}
			if !errors.Is(res.Err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", res.Err)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("result channel was not closed after cancel")
	}
}

func TestComposite_CancelAfterFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	slope := slopeSource(8)
	src := tiles.SourceFunc(func(ctx context.Context, id tiles.ID) (terrainrgb.Pixels, error) {
		pixels, err := slope.Fetch(ctx, id)
		cancel()
		return pixels, err
	})

	list := []Tile{{Zoom: 1, X: 0}, {Zoom: 1, X: 1}, {Zoom: 1, Y: 1}, {Zoom: 1, X: 1, Y: 1}}
	results, err := Composite(ctx, list, src, testOptions())
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	count := 0
	for res := range results {
		count++
		if res.Mesh != nil {
			t.Errorf("expected no mesh after cancellation, got one for %v", res.Tile)
		}
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("expected context.Canceled for %v, got %v", res.Tile, res.Err)
		}
	}
	if count != len(list) {
		t.Errorf("expected %d results, got %d", len(list), count)
	}
}

func TestComposite_DerivedTileUnit(t *testing.T) {
	opts := testOptions()
	opts.MetersPerTileUnit = 0
	want := float32(opts.TileSide) * opts.BuildParams.MetersPerPixel * opts.BuildParams.VerticalScale
	if got := opts.tileUnit(); got != want {
		t.Errorf("expected tile unit %v, got %v", want, got)
	}
}

func TestPipeline_Run(t *testing.T) {
	params := terrain.DefaultBuildParams()
	params.FlatShaded = true
	p, err := NewPipeline(8, 0, params)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if p.TileSide() != 8 {
		t.Errorf("expected tile side 8, got %d", p.TileSide())
	}

	mesh, heightmap, err := p.Run(terrainrgb.Fill(8, 0, 39, 16), [2]float32{10, 20})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !mesh.FlatShaded {
		t.Error("expected flat shaded mesh")
	}
	if mesh.NumVertices() != 3*mesh.NumTriangles() {
		t.Errorf("expected 3 vertices per triangle, got %d for %d", mesh.NumVertices(), mesh.NumTriangles())
	}
	if mesh.Bounds.Min[0] != 10 || mesh.Bounds.Min[1] != 20 {
		t.Errorf("expected mesh origin at (10, 20), got %v", mesh.Bounds.Min)
	}

	// The heightmap shares the mesh's placement
	if heightmap.Contains(0, 0) {
		t.Error("expected heightmap to exclude the world origin")
	}
	x, y := mesh.Bounds.Center()[0], mesh.Bounds.Center()[1]
	if !heightmap.Contains(x, y) {
		t.Fatalf("expected heightmap to contain mesh center (%v, %v)", x, y)
	}
	if got, want := heightmap.HeightAt(x, y), mesh.Bounds.Max[2]; gomath.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("expected height %v at mesh center, got %v", want, got)
	}
}
