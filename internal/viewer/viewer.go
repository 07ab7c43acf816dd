// Package viewer runs the interactive terrain window: it streams tile meshes
// from the compositor onto the GPU and handles the orbit camera.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/compositor"
	"github.com/Faultbox/demview/internal/config"
	"github.com/Faultbox/demview/internal/engine/camera"
	"github.com/Faultbox/demview/internal/engine/debug"
	"github.com/Faultbox/demview/internal/engine/input"
	"github.com/Faultbox/demview/internal/engine/picking"
	"github.com/Faultbox/demview/internal/engine/renderer"
	"github.com/Faultbox/demview/internal/engine/scene"
	"github.com/Faultbox/demview/internal/engine/window"
	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/internal/tiles"
)

// Config holds everything the viewer needs to start.
type Config struct {
	Title    string
	Graphics config.GraphicsConfig
	Camera   config.CameraConfig
	Tiles    []compositor.Tile
	Source   tiles.Source
	Options  compositor.Options
}

// Viewer is the main viewer instance.
type Viewer struct {
	config   Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	scene    *scene.Scene
	camera   *camera.OrbitCamera
	shots    *debug.ScreenshotCapture
	log      *zap.Logger

	results  <-chan compositor.Result
	pending  int
	failed   int
	centered bool

	surfaces picking.Surfaces
	probe    *picking.Hit // Terrain under the cursor, if any
}

// New opens the window and prepares GL state. Tiles load once Run starts.
func New(cfg Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int("tiles", len(cfg.Tiles)),
	)

	v := &Viewer{
		config: cfg,
		log:    log,
		camera: newCamera(cfg.Camera),
		shots:  debug.NewScreenshotCapture("screenshots", "demview"),
	}

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer and scene need the context the window just created
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: [3]float32{0.1, 0.1, 0.15},
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.scene, err = scene.New(scene.Config{
		Width:     int32(width),
		Height:    int32(height),
		Wireframe: cfg.Graphics.Wireframe,
	})
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	v.input = input.New()

	log.Info("viewer initialized successfully")
	return v, nil
}

func newCamera(cfg config.CameraConfig) *camera.OrbitCamera {
	cam := camera.NewOrbitCamera()
	if cfg.Distance > 0 {
		cam.Distance = cfg.Distance
	}
	cam.Pitch = cfg.Pitch
	cam.Yaw = cfg.Yaw
	if cfg.FOV > 0 {
		cam.FOV = cfg.FOV
	}
	if cfg.Near > 0 {
		cam.Near = cfg.Near
	}
	if cfg.Far > cam.Near {
		cam.Far = cfg.Far
	}
	return cam
}

// Run starts tile loading and the main loop. Closing the window cancels
// any tiles still in flight.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, err := compositor.Composite(ctx, v.config.Tiles, v.config.Source, v.config.Options)
	if err != nil {
		return fmt.Errorf("starting tile load: %w", err)
	}
	v.results = results
	v.pending = len(v.config.Tiles)
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting render loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		if ctx.Err() != nil {
			v.running = false
			break
		}

		v.receiveTiles()

		v.renderer.Begin()
		v.scene.Render(v.camera)
		v.renderer.End()

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			v.updateTitle(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// receiveTiles uploads every result that has arrived without blocking the frame.
func (v *Viewer) receiveTiles() {
	for v.results != nil {
		select {
		case res, ok := <-v.results:
			if !ok {
				v.results = nil
				v.log.Info("tile loading finished",
					zap.Int("loaded", v.scene.TileCount()),
					zap.Int("failed", v.failed))
				return
			}
			v.pending--
			v.addTile(res)
		default:
			return
		}
	}
}

func (v *Viewer) addTile(res compositor.Result) {
	if res.Err != nil {
		v.failed++
		v.log.Warn("tile skipped", zap.Stringer("tile", res.Tile), zap.Error(res.Err))
		return
	}
	if err := v.scene.AddTile(res.Tile.String(), res.Mesh); err != nil {
		v.failed++
		v.log.Warn("tile upload failed", zap.Stringer("tile", res.Tile), zap.Error(err))
		return
	}

	if res.Heightmap != nil {
		v.surfaces = append(v.surfaces, res.Heightmap)
	}

	// Aim at the first tile that arrives; later tiles extend around it
	if !v.centered {
		c := res.Mesh.Bounds.Center()
		v.camera.SetCenter(c[0], c[1], c[2])
		v.centered = true
	}
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := v.window.DrawableSize()
			v.renderer.Resize(width, height)
			v.scene.Resize(int32(width), int32(height))

		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			} else {
				v.probe = v.pick(event.MouseX, event.MouseY)
			}

		case input.EventMouseDown:
			// Middle click re-centers the orbit on the terrain under the cursor
			if event.Button == sdl.BUTTON_MIDDLE {
				if hit := v.pick(event.MouseX, event.MouseY); hit != nil {
					v.camera.SetCenter(hit.Point[0], hit.Point[1], hit.Point[2])
				}
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.DeltaY))

		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_W:
		v.scene.Wireframe = !v.scene.Wireframe
		v.log.Info("wireframe toggled", zap.Bool("enabled", v.scene.Wireframe))
	case sdl.SCANCODE_F:
		if b, ok := v.scene.Bounds(); ok {
			v.camera.FitToBounds(b.Min, b.Max)
		}
	case sdl.SCANCODE_R:
		center := v.camera.Center()
		v.camera = newCamera(v.config.Camera)
		v.camera.SetCenter(center.X, center.Y, center.Z)
	case sdl.SCANCODE_UP:
		v.camera.HandlePan(1, 0)
	case sdl.SCANCODE_DOWN:
		v.camera.HandlePan(-1, 0)
	case sdl.SCANCODE_LEFT:
		v.camera.HandlePan(0, -1)
	case sdl.SCANCODE_RIGHT:
		v.camera.HandlePan(0, 1)
	case sdl.SCANCODE_F12:
		v.screenshot()
	}
}

// pick casts a ray from a window position onto the loaded terrain.
func (v *Viewer) pick(x, y int) *picking.Hit {
	bounds, ok := v.scene.Bounds()
	if !ok || len(v.surfaces) == 0 {
		return nil
	}
	width, height := v.window.GetSize()
	if width == 0 || height == 0 {
		return nil
	}

	viewProj := v.camera.ProjectionMatrix(float32(width) / float32(height)).Mul(v.camera.ViewMatrix())
	ray := picking.ScreenToRay(float32(x), float32(y), float32(width), float32(height), viewProj.Inverse())

	// The simplified mesh may sit below peaks of the full surface
	box := picking.NewAABB(bounds.Min, bounds.Max)
	pad := (box.Max[2] - box.Min[2]) * 0.1
	box.Min[2] -= pad
	box.Max[2] += pad + 1

	step := v.camera.Distance / 500
	hit, ok := ray.IntersectSurface(v.surfaces, box, step)
	if !ok {
		return nil
	}
	return &hit
}

// elevation converts a world Z back to meters.
func (v *Viewer) elevation(z float32) float32 {
	p := v.config.Options.BuildParams
	vertical := p.VerticalScale * p.VerticalExaggeration
	if vertical == 0 {
		return 0
	}
	return (z - p.ElevationOffset) / vertical
}

func (v *Viewer) screenshot() {
	pixels, width, height := v.scene.CaptureImage()
	name, err := v.shots.CaptureFromPixels(pixels, int(width), int(height))
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("file", name))
}

func (v *Viewer) updateTitle(fps int) {
	title := fmt.Sprintf("%s - %d tiles, %d fps", v.config.Title, v.scene.TileCount(), fps)
	if v.pending > 0 {
		title += fmt.Sprintf(", %d loading", v.pending)
	}
	if v.failed > 0 {
		title += fmt.Sprintf(", %d failed", v.failed)
	}
	if v.probe != nil {
		title += fmt.Sprintf(" | cursor %.0f m", v.elevation(v.probe.Point[2]))
	}
	v.window.SetTitle(title)
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
