package tiles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// DirSource reads tiles from a local {z}/{x}/{y}.png (or .webp) tree,
// the layout most tile downloaders produce.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Path returns the first existing file for a tile, or the .png path if none exist.
func (s *DirSource) Path(id ID) string {
	base := filepath.Join(s.root,
		fmt.Sprint(id.Z), fmt.Sprint(id.X), fmt.Sprint(id.Y))
	for _, ext := range []string{".png", ".webp", ".pngraw"} {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext
		}
	}
	return base + ".png"
}

// Fetch reads and decodes one tile file.
func (s *DirSource) Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Tile: id, Err: err}
	}

	path := s.Path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Same meaning as an HTTP 404, and just as permanent
			return nil, &FetchError{Tile: id, URL: path, StatusCode: 404, Err: err}
		}
		return nil, &FetchError{Tile: id, URL: path, Err: err}
	}

	pixels, err := decode(data)
	if err != nil {
		return nil, &FetchError{Tile: id, URL: path, Err: err}
	}
	return pixels, nil
}

// ReadFile decodes a single tile image from disk.
func ReadFile(path string) (terrainrgb.Pixels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data)
}
