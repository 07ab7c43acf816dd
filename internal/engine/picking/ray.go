// Package picking casts rays from the screen into the terrain.
package picking

import (
	gomath "math"

	"github.com/Faultbox/demview/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // Normalized direction
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) [3]float32 {
	return [3]float32{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := unproject(invViewProj, ndcX, ndcY, -1)
	far := unproject(invViewProj, ndcX, ndcY, 1)

	dir := math.V3(far).Sub(math.V3(near)).Normalize()
	return Ray{Origin: near, Direction: dir.Array()}
}

func unproject(invViewProj math.Mat4, x, y, z float32) [3]float32 {
	p := invViewProj.MulVec4(math.Vec4{x, y, z, 1})
	if p[3] != 0 {
		return [3]float32{p[0] / p[3], p[1] / p[3], p[2] / p[3]}
	}
	return [3]float32{p[0], p[1], p[2]}
}

// IntersectPlaneZ intersects a ray with a horizontal plane at height z.
// Returns the intersection point (X, Y) and whether it lies ahead of the ray.
func (r Ray) IntersectPlaneZ(z float32) (x, y float32, ok bool) {
	if gomath.Abs(float64(r.Direction[2])) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (z - r.Origin[2]) / r.Direction[2]
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	p := r.At(t)
	return p[0], p[1], true
}

// Clip returns the parameter range where the ray is inside the box.
// tEnter is clamped to 0 when the ray starts inside.
func (r Ray) Clip(box AABB) (tEnter, tExit float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := range 3 {
		if r.Direction[axis] != 0 {
			t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
			t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = max(tmin, t1)
			tmax = min(tmax, t2)
		} else if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
			return 0, 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return max(tmin, 0), tmax, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tEnter, tExit, hit := r.Clip(box)
	if !hit {
		return 0, false
	}
	if tEnter == 0 {
		return tExit, true
	}
	return tEnter, true
}

// NewAABB creates an AABB from two opposite corners in any order.
func NewAABB(a, b [3]float32) AABB {
	var box AABB
	for axis := range 3 {
		box.Min[axis] = min(a[axis], b[axis])
		box.Max[axis] = max(a[axis], b[axis])
	}
	return box
}
