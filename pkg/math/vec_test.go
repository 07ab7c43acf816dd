package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	if n != (Vec3{0.6, 0, 0.8}) {
		t.Errorf("Vec3.Normalize() = %v, want (0.6, 0, 0.8)", n)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("Vec3.Normalize() of zero vector should be zero")
	}
}

func TestCentroid(t *testing.T) {
	got := Centroid(Vec3{0, 0, 0}, Vec3{3, 0, 0}, Vec3{0, 3, 3})
	want := Vec3{1, 1, 1}
	if got.Sub(want).Length() > 1e-6 {
		t.Errorf("Centroid() = %v, want %v", got, want)
	}
}

func TestVec3Array(t *testing.T) {
	p := [3]float32{1, 2, 3}
	if V3(p).Array() != p {
		t.Errorf("V3(%v).Array() = %v", p, V3(p).Array())
	}
}
