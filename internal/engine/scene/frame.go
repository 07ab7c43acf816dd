package scene

import (
	"github.com/Faultbox/demview/internal/engine/camera"
	"github.com/Faultbox/demview/internal/engine/lighting"
	"github.com/Faultbox/demview/pkg/math"
)

// FrameParams is the per-frame shading state. It is computed once per frame
// and passed by value to every tile draw, so tiles never share mutable state.
type FrameParams struct {
	ViewProj    math.Mat4
	CameraPos   [3]float32
	Light       lighting.Light
	HeightRange [2]float32 // World Z mapped onto the tint ramp
	Wireframe   bool
	Exposure    float32
}

// NewFrame snapshots the camera for a viewport of the given aspect ratio.
func NewFrame(cam *camera.OrbitCamera, aspect float32, light lighting.Light, minZ, maxZ float32) FrameParams {
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(aspect)

	return FrameParams{
		ViewProj:    proj.Mul(view),
		CameraPos:   cam.Position().Array(),
		Light:       light,
		HeightRange: [2]float32{minZ, maxZ},
		Exposure:    2,
	}
}
