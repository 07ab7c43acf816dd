// Package terrainrgb decodes terrain-RGB elevation tiles into height grids.
//
// Terrain-RGB packs a non-negative integer into the three color channels of a
// pixel. Elevation in meters is (R*65536 + G*256 + B) * 0.1 - 10000.
package terrainrgb

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrInvalidInput is returned when a pixel buffer is not a square RGBA image.
var ErrInvalidInput = errors.New("terrainrgb: invalid pixel buffer")

// Pixels is a row-major RGBA buffer of a square tile, 4 bytes per pixel.
type Pixels []byte

// Side returns the tile side length in pixels, or an error if the buffer is
// not a whole number of RGBA pixels arranged in a square.
func (p Pixels) Side() (int, error) {
	if len(p) == 0 || len(p)%4 != 0 {
		return 0, fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidInput, len(p))
	}
	count := len(p) / 4
	side := int(math.Sqrt(float64(count)))
	// Guard against float rounding on large buffers
	for side*side > count {
		side--
	}
	for (side+1)*(side+1) <= count {
		side++
	}
	if side*side != count {
		return 0, fmt.Errorf("%w: %d pixels is not a square", ErrInvalidInput, count)
	}
	return side, nil
}

// Grid is a square elevation grid with one more sample per side than the
// source tile has pixels, so it addresses grid vertices rather than cells.
type Grid struct {
	Size int       // Samples per side
	Data []float32 // Row-major, Data[y*Size+x]
}

// At returns the elevation at grid vertex (x, y).
func (g *Grid) At(x, y int) float32 {
	return g.Data[y*g.Size+x]
}

// Max returns the highest elevation in the grid.
func (g *Grid) Max() float32 {
	if len(g.Data) == 0 {
		return 0
	}
	m := g.Data[0]
	for _, v := range g.Data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Elevation decodes one terrain-RGB pixel to meters.
func Elevation(r, g, b uint8) float32 {
	return (float32(r)*256*256+float32(g)*256.0+float32(b))/10.0 - 10000.0
}

// Encode packs an elevation in meters into terrain-RGB channels.
// Values outside the representable range are clamped.
func Encode(elevation float64) (r, g, b uint8) {
	v := math.Round((elevation + 10000) * 10)
	if v < 0 {
		v = 0
	}
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	n := uint32(v)
	return uint8(n >> 16), uint8(n >> 8), uint8(n)
}

// Decode converts a tile's pixels into an elevation grid of side S+1.
// The extra row and column are backfilled from their neighbours so the grid
// has no artificial cliff along its right and bottom edges.
func Decode(pixels Pixels) (*Grid, error) {
	tileSize, err := pixels.Side()
	if err != nil {
		return nil, err
	}
	gridSize := tileSize + 1
	terrain := make([]float32, gridSize*gridSize)

	for y := range tileSize {
		for x := range tileSize {
			k := (y*tileSize + x) * 4
			terrain[y*gridSize+x] = Elevation(pixels[k], pixels[k+1], pixels[k+2])
		}
	}

	// Bottom row, then right column (the corner comes from the filled row)
	last := gridSize * (gridSize - 1)
	copy(terrain[last:last+gridSize-1], terrain[last-gridSize:last-1])
	for y := range gridSize {
		terrain[gridSize*y+gridSize-1] = terrain[gridSize*y+gridSize-2]
	}

	return &Grid{Size: gridSize, Data: terrain}, nil
}

// FromImage flattens a decoded image into an RGBA pixel buffer.
func FromImage(img image.Image) Pixels {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		out := make(Pixels, len(rgba.Pix))
		copy(out, rgba.Pix)
		return out
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) && nrgba.Stride == 4*nrgba.Rect.Dx() {
		out := make(Pixels, len(nrgba.Pix))
		copy(out, nrgba.Pix)
		return out
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make(Pixels, w*h*4)
	for y := range h {
		for x := range w {
			// Terrain-RGB stores data, not color; read straight (non-premultiplied) channels
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			k := (y*w + x) * 4
			out[k] = c.R
			out[k+1] = c.G
			out[k+2] = c.B
			out[k+3] = c.A
		}
	}
	return out
}

// Fill returns a side x side buffer with every pixel set to (r, g, b, 255).
func Fill(side int, r, g, b uint8) Pixels {
	out := make(Pixels, side*side*4)
	for i := 0; i < len(out); i += 4 {
		out[i] = r
		out[i+1] = g
		out[i+2] = b
		out[i+3] = 255
	}
	return out
}
