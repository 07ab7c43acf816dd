// Package rtin builds right-triangulated irregular network (RTIN) meshes from
// square height grids.
//
// A grid of side 2^k+1 is covered by a binary hierarchy of right triangles.
// Each tile stores, per grid vertex, the largest vertical error introduced by
// skipping that vertex; extraction walks the hierarchy and splits a triangle
// only while the error at its hypotenuse midpoint exceeds the tolerance.
package rtin

import (
	"errors"
	"fmt"
)

// ErrInvalidGridSize is returned when a grid side is not 2^k+1 (k >= 1), or
// when a terrain slice does not match the grid it was created for.
var ErrInvalidGridSize = errors.New("rtin: grid size must be 2^k+1")

// Martini holds the triangle coordinate table for one grid size.
// It is read-only after New and can be shared between goroutines.
type Martini struct {
	gridSize           int
	numTriangles       int
	numParentTriangles int
	// ax, ay, bx, by per triangle; c is derived from the hypotenuse a-b
	coords []uint16
}

// ValidGridSize reports whether size is 2^k+1 for some k >= 1.
func ValidGridSize(size int) bool {
	tileSize := size - 1
	return tileSize >= 2 && tileSize&(tileSize-1) == 0
}

// New precomputes the triangle hierarchy for grids of side gridSize.
func New(gridSize int) (*Martini, error) {
	if !ValidGridSize(gridSize) || gridSize-1 > 0xFFFF {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridSize, gridSize)
	}
	tileSize := gridSize - 1

	m := &Martini{
		gridSize:     gridSize,
		numTriangles: tileSize*tileSize*2 - 2,
	}
	m.numParentTriangles = m.numTriangles - tileSize*tileSize
	m.coords = make([]uint16, m.numTriangles*4)

	// Triangle i has implicit id i+2; the id's bits trace the path from one
	// of the two root triangles down the hierarchy.
	for i := range m.numTriangles {
		id := i + 2
		var ax, ay, bx, by, cx, cy int
		if id&1 != 0 {
			bx, by, cx = tileSize, tileSize, tileSize // bottom-left root
		} else {
			ax, ay, cy = tileSize, tileSize, tileSize // top-right root
		}
		for id >>= 1; id > 1; id >>= 1 {
			mx := (ax + bx) >> 1
			my := (ay + by) >> 1
			if id&1 != 0 {
				// left half
				bx, by = ax, ay
				ax, ay = cx, cy
			} else {
				// right half
				ax, ay = bx, by
				bx, by = cx, cy
			}
			cx, cy = mx, my
		}
		k := i * 4
		m.coords[k] = uint16(ax)
		m.coords[k+1] = uint16(ay)
		m.coords[k+2] = uint16(bx)
		m.coords[k+3] = uint16(by)
	}

	return m, nil
}

// GridSize returns the grid side this table was built for.
func (m *Martini) GridSize() int {
	return m.gridSize
}

// CreateTile computes the error hierarchy for terrain, a row-major height
// grid of GridSize()^2 samples. The terrain slice is retained, not copied.
func (m *Martini) CreateTile(terrain []float32) (*Tile, error) {
	size := m.gridSize
	if len(terrain) != size*size {
		return nil, fmt.Errorf("%w: expected %d samples for side %d, got %d",
			ErrInvalidGridSize, size*size, size, len(terrain))
	}
	t := &Tile{
		martini: m,
		terrain: terrain,
		errors:  make([]float32, size*size),
	}
	t.update()
	return t, nil
}

// Tile is the error hierarchy of one height grid. Meshes can be extracted
// from it repeatedly at different tolerances.
type Tile struct {
	martini *Martini
	terrain []float32
	errors  []float32
}

// update fills the error map bottom-up: smallest triangles first, so each
// parent folds in the already-final errors of its children.
func (t *Tile) update() {
	m := t.martini
	size := m.gridSize
	terrain := t.terrain
	errs := t.errors

	for i := m.numTriangles - 1; i >= 0; i-- {
		k := i * 4
		ax := int(m.coords[k])
		ay := int(m.coords[k+1])
		bx := int(m.coords[k+2])
		by := int(m.coords[k+3])
		mx := (ax + bx) >> 1
		my := (ay + by) >> 1
		cx := mx + my - ay
		cy := my + ax - mx

		interpolated := (terrain[ay*size+ax] + terrain[by*size+bx]) / 2
		middle := my*size + mx
		middleError := abs32(interpolated - terrain[middle])
		errs[middle] = max(errs[middle], middleError)

		if i < m.numParentTriangles {
			left := ((ay+cy)>>1)*size + ((ax + cx) >> 1)
			right := ((by+cy)>>1)*size + ((bx + cx) >> 1)
			errs[middle] = max(errs[middle], errs[left], errs[right])
		}
	}
}

// Error returns the approximation error stored for grid vertex (x, y).
func (t *Tile) Error(x, y int) float32 {
	return t.errors[y*t.martini.gridSize+x]
}

// Mesh extracts the coarsest mesh whose vertical error stays within maxError.
func (t *Tile) Mesh(maxError float32) *Mesh {
	size := t.martini.gridSize
	last := size - 1

	w := &walker{
		errors:   t.errors,
		size:     size,
		maxError: maxError,
		indices:  make([]uint32, size*size),
	}

	w.count(0, 0, last, last, last, 0)
	w.count(last, last, 0, 0, 0, last)

	w.mesh = &Mesh{
		Vertices:  make([]uint16, w.numVertices*2),
		Triangles: make([]uint32, w.numTriangles*3),
	}
	w.emit(0, 0, last, last, last, 0)
	w.emit(last, last, 0, 0, 0, last)

	return w.mesh
}

// walker carries the state of one extraction so Tile and Martini stay
// immutable during concurrent use.
type walker struct {
	errors   []float32
	size     int
	maxError float32

	// 1-based vertex number per grid vertex, 0 = unused
	indices      []uint32
	numVertices  uint32
	numTriangles int

	mesh     *Mesh
	triIndex int
}

func (w *walker) split(ax, ay, bx, by, cx, cy int) (mx, my int, ok bool) {
	mx = (ax + bx) >> 1
	my = (ay + by) >> 1
	ok = absInt(ax-cx)+absInt(ay-cy) > 1 && w.errors[my*w.size+mx] > w.maxError
	return mx, my, ok
}

func (w *walker) count(ax, ay, bx, by, cx, cy int) {
	if mx, my, ok := w.split(ax, ay, bx, by, cx, cy); ok {
		w.count(cx, cy, ax, ay, mx, my)
		w.count(bx, by, cx, cy, mx, my)
		return
	}
	w.assign(ay*w.size + ax)
	w.assign(by*w.size + bx)
	w.assign(cy*w.size + cx)
	w.numTriangles++
}

func (w *walker) assign(gridIndex int) {
	if w.indices[gridIndex] == 0 {
		w.numVertices++
		w.indices[gridIndex] = w.numVertices
	}
}

func (w *walker) emit(ax, ay, bx, by, cx, cy int) {
	if mx, my, ok := w.split(ax, ay, bx, by, cx, cy); ok {
		w.emit(cx, cy, ax, ay, mx, my)
		w.emit(bx, by, cx, cy, mx, my)
		return
	}
	a := w.indices[ay*w.size+ax] - 1
	b := w.indices[by*w.size+bx] - 1
	c := w.indices[cy*w.size+cx] - 1

	v := w.mesh.Vertices
	v[2*a], v[2*a+1] = uint16(ax), uint16(ay)
	v[2*b], v[2*b+1] = uint16(bx), uint16(by)
	v[2*c], v[2*c+1] = uint16(cx), uint16(cy)

	tri := w.mesh.Triangles
	tri[w.triIndex] = a
	tri[w.triIndex+1] = b
	tri[w.triIndex+2] = c
	w.triIndex += 3
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
