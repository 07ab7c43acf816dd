package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/engine/camera"
	"github.com/Faultbox/demview/internal/engine/lighting"
	"github.com/Faultbox/demview/internal/engine/terrain"
	"github.com/Faultbox/demview/internal/logger"
)

// Config contains scene configuration options.
type Config struct {
	Width     int32
	Height    int32
	Wireframe bool
}

// Scene holds the terrain tiles loaded so far and the light that shades them.
type Scene struct {
	config Config

	terrainRenderer *TerrainRenderer

	Light     lighting.Light
	Wireframe bool

	bounds    terrain.Bounds
	hasBounds bool
}

// New creates a scene. Requires a current GL context.
func New(cfg Config) (*Scene, error) {
	s := &Scene{
		config:    cfg,
		Light:     lighting.Default(),
		Wireframe: cfg.Wireframe,
	}

	var err error
	s.terrainRenderer, err = NewTerrainRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}

	return s, nil
}

// AddTile uploads a finished tile mesh and grows the scene bounds.
func (s *Scene) AddTile(name string, mesh *terrain.Mesh) error {
	if err := s.terrainRenderer.Upload(name, mesh); err != nil {
		return err
	}
	if s.hasBounds {
		s.bounds = s.bounds.Union(mesh.Bounds)
	} else {
		s.bounds, s.hasBounds = mesh.Bounds, true
	}

	logger.Debug("tile uploaded",
		zap.String("tile", name),
		zap.Int("vertices", mesh.NumVertices()),
		zap.Int("triangles", mesh.NumTriangles()),
		zap.Int("tiles", s.terrainRenderer.Len()))
	return nil
}

// Bounds returns the box around every tile added so far.
func (s *Scene) Bounds() (terrain.Bounds, bool) {
	return s.bounds, s.hasBounds
}

// TileCount returns the number of tiles on the GPU.
func (s *Scene) TileCount() int {
	return s.terrainRenderer.Len()
}

// Frame snapshots the camera and lighting for one frame.
func (s *Scene) Frame(cam *camera.OrbitCamera) FrameParams {
	aspect := float32(s.config.Width) / float32(max(s.config.Height, 1))
	minZ, maxZ := float32(0), float32(1)
	if s.hasBounds {
		minZ, maxZ = s.bounds.Min[2], s.bounds.Max[2]
	}
	frame := NewFrame(cam, aspect, s.Light, minZ, maxZ)
	frame.Wireframe = s.Wireframe
	return frame
}

// Render draws the scene into the current framebuffer.
func (s *Scene) Render(cam *camera.OrbitCamera) {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	s.terrainRenderer.Render(s.Frame(cam))
}

// Resize updates the scene dimensions.
func (s *Scene) Resize(width, height int32) {
	s.config.Width = width
	s.config.Height = height
}

// CaptureImage reads the default framebuffer as bottom-up RGBA rows.
func (s *Scene) CaptureImage() ([]byte, int32, int32) {
	width, height := s.config.Width, s.config.Height
	pixels := make([]byte, int(width)*int(height)*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Clear removes every tile.
func (s *Scene) Clear() {
	s.terrainRenderer.Clear()
	s.bounds, s.hasBounds = terrain.Bounds{}, false
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.terrainRenderer != nil {
		s.terrainRenderer.Destroy()
	}
}
