package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// maxTileBytes bounds a single tile download.
const maxTileBytes = 16 << 20

// HTTPSource downloads tiles from a URL template such as
// "https://api.mapbox.com/v4/mapbox.terrain-rgb/{z}/{x}/{y}.pngraw?access_token={token}".
type HTTPSource struct {
	client    *http.Client
	template  string
	token     string
	userAgent string
}

// NewHTTPSource creates a source for template. A zero timeout means no
// limit; New substitutes DefaultTimeout.
func NewHTTPSource(template, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		client:    &http.Client{Timeout: timeout},
		template:  template,
		token:     token,
		userAgent: "demview/1.0",
	}
}

// URL expands the template for a tile.
func (s *HTTPSource) URL(id ID) string {
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(id.Z), 10),
		"{x}", strconv.FormatUint(uint64(id.X), 10),
		"{y}", strconv.FormatUint(uint64(id.Y), 10),
		"{token}", s.token,
	)
	return r.Replace(s.template)
}

// Fetch downloads and decodes one tile.
func (s *HTTPSource) Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error) {
	target := s.URL(id)
	fail := func(status int, err error) error {
		return &FetchError{Tile: id, URL: redact(target, s.token), StatusCode: status, Err: err}
	}

	if !id.Valid() {
		return nil, fail(0, fmt.Errorf("tile %s outside zoom level", id))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "image/png, image/webp")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL, s.token)
		}
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected response %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}

	pixels, err := decode(data)
	if err != nil {
		return nil, fail(resp.StatusCode, err)
	}

	logger.Debug("tile downloaded",
		zap.Stringer("tile", id),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return pixels, nil
}

// redact hides the access token in URLs that end up in errors and logs.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "REDACTED")
}
