// Package camera provides the orbit camera used to inspect terrain.
package camera

import (
	gomath "math"

	"github.com/Faultbox/demview/pkg/math"
)

// OrbitCamera orbits around a center point in a Z-up world.
type OrbitCamera struct {
	// Center point to orbit around
	CenterX, CenterY, CenterZ float32

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Elevation above the XY plane, radians
	Yaw      float32 // Rotation around Z, radians; 0 looks along +Y

	// Projection
	FOV  float32 // Vertical field of view, degrees
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera above the origin with a 90 degree field of
// view and a 0.1-1000 depth range.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        400,
		Pitch:           0.8,
		Yaw:             0,
		FOV:             90,
		Near:            0.1,
		Far:             1000,
		MinDistance:     5,
		MaxDistance:     5000,
		MinPitch:        0.05,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	x := c.Distance * float32(cp*gomath.Sin(float64(c.Yaw)))
	y := -c.Distance * float32(cp*gomath.Cos(float64(c.Yaw)))
	z := c.Distance * float32(gomath.Sin(float64(c.Pitch)))

	return math.Vec3{
		X: c.CenterX + x,
		Y: c.CenterY + y,
		Z: c.CenterZ + z,
	}
}

// Center returns the orbit target.
func (c *OrbitCamera) Center() math.Vec3 {
	return math.Vec3{X: c.CenterX, Y: c.CenterY, Z: c.CenterZ}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 0, Z: 1}
	return math.LookAt(c.Position(), c.Center(), up)
}

// ProjectionMatrix returns the perspective projection for a viewport aspect.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	fovY := c.FOV * gomath.Pi / 180
	return math.Perspective(fovY, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandlePan moves the center across the ground plane relative to the view.
func (c *OrbitCamera) HandlePan(forward, right float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	sin := float32(gomath.Sin(float64(c.Yaw)))
	cos := float32(gomath.Cos(float64(c.Yaw)))

	// Forward points from the camera toward the center, projected on XY
	c.CenterX += (-sin*forward + cos*right) * speed
	c.CenterY += (cos*forward + sin*right) * speed
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(x, y, z float32) {
	c.CenterX = x
	c.CenterY = y
	c.CenterZ = z
}

// FitToBounds centers the camera on a box and backs off far enough to see
// its widest horizontal extent. The far plane grows to keep the box in range.
func (c *OrbitCamera) FitToBounds(min, max [3]float32) {
	c.CenterX = (min[0] + max[0]) / 2
	c.CenterY = (min[1] + max[1]) / 2
	c.CenterZ = (min[2] + max[2]) / 2

	size := max[0] - min[0]
	if dy := max[1] - min[1]; dy > size {
		size = dy
	}

	halfFOV := float64(c.FOV) * gomath.Pi / 360
	fit := size / 2 / float32(gomath.Tan(halfFOV)) * 1.2
	c.Distance = clamp(fit, c.MinDistance, c.MaxDistance)

	if need := c.Distance + size; need > c.Far {
		c.Far = need
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
