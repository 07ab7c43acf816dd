package picking

// Surface is a height field over part of the XY plane.
type Surface interface {
	Contains(x, y float32) bool
	HeightAt(x, y float32) float32
}

// Surfaces combines several non-overlapping height fields.
type Surfaces []Surface

// Contains reports whether any surface covers (x, y).
func (s Surfaces) Contains(x, y float32) bool {
	_, ok := s.find(x, y)
	return ok
}

// HeightAt returns the height of the first surface covering (x, y), or 0.
func (s Surfaces) HeightAt(x, y float32) float32 {
	if surf, ok := s.find(x, y); ok {
		return surf.HeightAt(x, y)
	}
	return 0
}

func (s Surfaces) find(x, y float32) (Surface, bool) {
	for _, surf := range s {
		if surf.Contains(x, y) {
			return surf, true
		}
	}
	return nil, false
}

// Hit is where a ray meets a surface.
type Hit struct {
	Point    [3]float32
	Distance float32
}

const refineSteps = 16

// IntersectSurface marches the ray through box in increments of step and
// returns the first crossing below the surface, refined by bisection.
// Samples outside every surface never count as a crossing.
func (r Ray) IntersectSurface(surf Surface, box AABB, step float32) (Hit, bool) {
	if step <= 0 {
		return Hit{}, false
	}
	tEnter, tExit, ok := r.Clip(box)
	if !ok {
		return Hit{}, false
	}

	above := func(t float32) (bool, bool) {
		p := r.At(t)
		if !surf.Contains(p[0], p[1]) {
			return false, false
		}
		return p[2] > surf.HeightAt(p[0], p[1]), true
	}

	prev := tEnter
	prevAbove, prevOK := above(prev)
	if prevOK && !prevAbove {
		return Hit{Point: r.At(prev), Distance: prev}, true
	}

	for t := tEnter + step; ; t += step {
		t = min(t, tExit)
		isAbove, ok := above(t)
		if ok && !isAbove {
			lo, hi := prev, t
			if !prevOK || !prevAbove {
				lo = t
			}
			for range refineSteps {
				if lo == hi {
					break
				}
				mid := (lo + hi) / 2
				if a, ok := above(mid); ok && a {
					lo = mid
				} else {
					hi = mid
				}
			}
			return Hit{Point: r.At(hi), Distance: hi}, true
		}
		if t >= tExit {
			return Hit{}, false
		}
		prev, prevAbove, prevOK = t, isAbove, ok
	}
}
