package terrain

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriteOBJ(t *testing.T) {
	m := &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0.5}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[2] != "v 0 1 0.5" {
		t.Errorf("expected third vertex line 'v 0 1 0.5', got %q", lines[2])
	}
	if last := lines[9]; last != "f 1/1/1 2/2/2 3/3/3" {
		t.Errorf("expected face 'f 1/1/1 2/2/2 3/3/3', got %q", last)
	}
}

func TestWriteOBJ_BadIndices(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
	}{
		{"partial triangle", []uint32{0, 1}},
		{"out of range", []uint32{0, 1, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{
				Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				Indices:   tt.indices,
			}
			err := WriteOBJ(&bytes.Buffer{}, m)
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("expected ErrIndexOutOfRange, got %v", err)
			}
		})
	}
}
