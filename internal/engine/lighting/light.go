// Package lighting provides the light setup used to shade terrain.
package lighting

import "math"

// Light is an ambient term plus one directional light.
type Light struct {
	Ambient   [3]float32 // RGB color (0-1 range)
	Color     [3]float32 // Directional light color
	Intensity float32
	Direction [3]float32 // Unit vector pointing toward the light
}

// Default returns a soft grey ambient with a grey sun shining from (1,1,1).
func Default() Light {
	return Light{
		Ambient:   HexColor(0x404040),
		Color:     HexColor(0x404040),
		Intensity: 1,
		Direction: Normalize([3]float32{1, 1, 1}),
	}
}

// HexColor converts 0xRRGGBB into normalized RGB.
func HexColor(hex uint32) [3]float32 {
	return [3]float32{
		float32((hex>>16)&0xFF) / 255,
		float32((hex>>8)&0xFF) / 255,
		float32(hex&0xFF) / 255,
	}
}

// Normalize returns v scaled to unit length, or v unchanged if it is zero.
func Normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// SunDirection converts an azimuth around Z and an elevation above the
// horizon, both in degrees, into a unit vector pointing toward the sun.
func SunDirection(azimuth, elevation float32) [3]float32 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	return [3]float32{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Cos(el) * math.Cos(az)),
		float32(math.Sin(el)),
	}
}

// Shade returns the Lambert color of a surface with the given normal, the
// same formula the terrain shader applies per fragment.
func (l Light) Shade(albedo, normal [3]float32) [3]float32 {
	n := Normalize(normal)
	d := n[0]*l.Direction[0] + n[1]*l.Direction[1] + n[2]*l.Direction[2]
	if d < 0 {
		d = 0
	}
	var out [3]float32
	for i := range out {
		out[i] = albedo[i] * (l.Ambient[i] + l.Color[i]*l.Intensity*d)
	}
	return out
}
