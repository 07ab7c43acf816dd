// Package tiles fetches terrain-RGB tiles and hands back their pixels.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"

	// Registered decoders for tile payloads
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// ID addresses a tile in the XYZ (slippy map) scheme.
type ID struct {
	Z uint32
	X uint32
	Y uint32
}

// Valid reports whether the column and row exist at the zoom level.
func (id ID) Valid() bool {
	return id.Z < 32 && id.X < (1<<id.Z) && id.Y < (1<<id.Z)
}

func (id ID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// Source yields the RGBA pixels of a tile. Every failure is a *FetchError.
type Source interface {
	Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, id ID) (terrainrgb.Pixels, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error) {
	return f(ctx, id)
}

// FetchError reports a tile that could not be obtained or decoded.
type FetchError struct {
	Tile       ID
	URL        string // Request URL or file path, if any
	StatusCode int    // HTTP status, 0 if no response was received
	Err        error
}

func (e *FetchError) Error() string {
	where := e.Tile.String()
	if e.URL != "" {
		where = e.URL
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch tile %s: status %d: %v", where, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch tile %s: %v", where, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request may succeed.
func (e *FetchError) Temporary() bool {
	if errors.Is(e.Err, ErrMalformedImage) || errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	}
	return false
}

// ErrMalformedImage is wrapped by FetchError when a payload is not a
// decodable square image.
var ErrMalformedImage = errors.New("malformed tile image")

// decode turns an encoded PNG or WebP payload into tile pixels.
func decode(data []byte) (terrainrgb.Pixels, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() || b.Dx() == 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d, expected square", ErrMalformedImage, format, b.Dx(), b.Dy())
	}
	return terrainrgb.FromImage(img), nil
}

// asFetchError wraps err for id unless it already is a FetchError.
func asFetchError(id ID, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Tile: id, Err: err}
}
