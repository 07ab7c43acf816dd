package math

import (
	"math"
	"testing"
)

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := range 16 {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{6, 12, 18}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestLookAtMapsCenterToNegativeZ(t *testing.T) {
	eye := Vec3{0, -10, 10}
	view := LookAt(eye, Vec3{}, Vec3{0, 0, 1})

	p := view.TransformPoint(Vec3{})
	dist := eye.Length()
	if abs(p.X) > 0.001 || abs(p.Y) > 0.001 || abs(p.Z+dist) > 0.001 {
		t.Errorf("LookAt center: got %v, want (0, 0, %f)", p, -dist)
	}
}

func TestPerspectiveNearPlane(t *testing.T) {
	proj := Perspective(float32(math.Pi/2), 1, 0.1, 1000)

	// A point on the near plane maps to NDC depth -1
	p := proj.TransformPoint(Vec3{0, 0, -0.1})
	if abs(p.Z+1) > 0.001 {
		t.Errorf("near plane depth: got %f, want -1", p.Z)
	}
}

func TestInverse(t *testing.T) {
	view := LookAt(Vec3{3, -20, 15}, Vec3{1, 2, 0}, Vec3{0, 0, 1})
	proj := Perspective(math.Pi/2, 1.5, 1, 100)
	m := proj.Mul(view).Mul(Translate(4, 5, 6))

	got := m.Mul(m.Inverse())
	want := Identity()
	for i := range 16 {
		if abs(got[i]-want[i]) > 1e-3 {
			t.Errorf("M * M^-1 element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if got := (Mat4{}).Inverse(); got != Identity() {
		t.Errorf("expected identity for singular matrix, got %v", got)
	}
}

func TestMulVec4(t *testing.T) {
	got := Translate(1, 2, 3).MulVec4(Vec4{1, 1, 1, 1})
	want := Vec4{2, 3, 4, 1}
	if got != want {
		t.Errorf("MulVec4: got %v, want %v", got, want)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
