package terrainrgb

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestDecode_UniformFixture(t *testing.T) {
	// (0, 39, 16) encodes 10000 -> 1000m - 10000m
	pixels := Fill(2, 0, 39, 16)

	grid, err := Decode(pixels)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if grid.Size != 3 {
		t.Fatalf("expected grid size 3, got %d", grid.Size)
	}
	if len(grid.Data) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(grid.Data))
	}
	for i, v := range grid.Data {
		if v != -9000.0 {
			t.Errorf("sample %d: expected -9000, got %v", i, v)
		}
	}
}

func TestDecode_Backfill(t *testing.T) {
	const side = 4
	pixels := make(Pixels, side*side*4)
	for y := range side {
		for x := range side {
			k := (y*side + x) * 4
			pixels[k] = uint8(x)
			pixels[k+1] = uint8(y * 17)
			pixels[k+2] = uint8(x*31 + y)
			pixels[k+3] = 255
		}
	}

	grid, err := Decode(pixels)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	n := grid.Size
	if n != side+1 {
		t.Fatalf("expected grid size %d, got %d", side+1, n)
	}
	for x := range n {
		if grid.At(x, n-1) != grid.At(x, n-2) {
			t.Errorf("bottom row x=%d: expected %v, got %v", x, grid.At(x, n-2), grid.At(x, n-1))
		}
	}
	for y := range n {
		if grid.At(n-1, y) != grid.At(n-2, y) {
			t.Errorf("right column y=%d: expected %v, got %v", y, grid.At(n-2, y), grid.At(n-1, y))
		}
	}

	// Interior samples come straight from the pixels
	want := Elevation(pixels[(1*side+2)*4], pixels[(1*side+2)*4+1], pixels[(1*side+2)*4+2])
	if got := grid.At(2, 1); got != want {
		t.Errorf("At(2,1): expected %v, got %v", want, got)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	pixels := make(Pixels, 8*8*4)
	for i := range pixels {
		pixels[i] = uint8(i * 7)
	}

	a, err := Decode(pixels)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	b, err := Decode(pixels)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("sample %d differs between runs: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestDecode_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		pixels Pixels
	}{
		{"empty", Pixels{}},
		{"not multiple of 4", make(Pixels, 15)},
		{"not square", make(Pixels, 3*4)},
		{"rectangle", make(Pixels, 2*3*4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.pixels)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, h := range []float64{-10000, -9000, 0, 0.1, 123.4, 8848.8} {
		r, g, b := Encode(h)
		got := Elevation(r, g, b)
		if diff := float64(got) - h; diff > 0.05 || diff < -0.05 {
			t.Errorf("Encode(%v) decoded to %v", h, got)
		}
	}
}

func TestGridMax(t *testing.T) {
	below := Fill(2, 0, 39, 16) // -9000 everywhere
	peak := Fill(2, 0, 39, 16)
	r, g, b := Encode(1500)
	copy(peak[4:8], []byte{r, g, b, 255})

	tests := []struct {
		name string
		grid *Grid
		want float32
	}{
		{"mixed", &Grid{Size: 2, Data: []float32{-5, 3, 2, -1}}, 3},
		{"all below sea level", mustDecode(t, below), -9000},
		{"single peak", mustDecode(t, peak), 1500},
		{"empty", &Grid{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grid.Max(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func mustDecode(t *testing.T, pixels Pixels) *Grid {
	t.Helper()
	grid, err := Decode(pixels)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return grid
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	pixels := FromImage(img)
	if len(pixels) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(pixels))
	}
	if pixels[4] != 1 || pixels[5] != 2 || pixels[6] != 3 || pixels[7] != 255 {
		t.Errorf("unexpected pixel (1,0): %v", pixels[4:8])
	}

	// Sub-image with a non-zero origin takes the generic path
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 2, color.Gray{Y: 200})
	sub := gray.SubImage(image.Rect(2, 2, 4, 4))
	pixels = FromImage(sub)
	if len(pixels) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(pixels))
	}
	if pixels[0] != 200 || pixels[3] != 255 {
		t.Errorf("unexpected pixel (0,0): %v", pixels[0:4])
	}
}
