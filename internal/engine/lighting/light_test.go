package lighting

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		hex  uint32
		want [3]float32
	}{
		{0x000000, [3]float32{0, 0, 0}},
		{0xFFFFFF, [3]float32{1, 1, 1}},
		{0xFF0000, [3]float32{1, 0, 0}},
		{0x404040, [3]float32{64.0 / 255, 64.0 / 255, 64.0 / 255}},
	}
	for _, tt := range tests {
		got := HexColor(tt.hex)
		for i := range got {
			if !approx(got[i], tt.want[i]) {
				t.Errorf("HexColor(%#06x) = %v, want %v", tt.hex, got, tt.want)
				break
			}
		}
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	d := l.Direction
	if !approx(d[0]*d[0]+d[1]*d[1]+d[2]*d[2], 1) {
		t.Errorf("expected unit direction, got %v", d)
	}
	if !approx(d[0], d[1]) || !approx(d[1], d[2]) {
		t.Errorf("expected direction along (1,1,1), got %v", d)
	}
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name         string
		az, el       float32
		wantX, wantY float32
		wantZ        float32
	}{
		{"zenith", 0, 90, 0, 0, 1},
		{"north horizon", 0, 0, 0, 1, 0},
		{"east horizon", 90, 0, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := SunDirection(tt.az, tt.el)
			if !approx(d[0], tt.wantX) || !approx(d[1], tt.wantY) || !approx(d[2], tt.wantZ) {
				t.Errorf("expected (%v, %v, %v), got %v", tt.wantX, tt.wantY, tt.wantZ, d)
			}
		})
	}
}

func TestShade(t *testing.T) {
	l := Light{
		Ambient:   [3]float32{0.25, 0.25, 0.25},
		Color:     [3]float32{1, 1, 1},
		Intensity: 0.5,
		Direction: [3]float32{0, 0, 1},
	}
	white := [3]float32{1, 1, 1}

	lit := l.Shade(white, [3]float32{0, 0, 2})
	if !approx(lit[0], 0.75) {
		t.Errorf("expected facing surface 0.75, got %v", lit[0])
	}

	back := l.Shade(white, [3]float32{0, 0, -1})
	if !approx(back[0], 0.25) {
		t.Errorf("expected back face to get ambient only, got %v", back[0])
	}

	if got := Normalize([3]float32{}); got != ([3]float32{}) {
		t.Errorf("expected zero vector unchanged, got %v", got)
	}
}
