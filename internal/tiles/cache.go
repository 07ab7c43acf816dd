package tiles

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// CacheSource keeps recently fetched tiles in memory for the lifetime of
// the view and collapses concurrent requests for the same tile into one.
// Cached pixel buffers are shared and must not be modified by callers.
type CacheSource struct {
	src   Source
	group singleflight.Group

	mu    sync.Mutex
	cache *lru.Cache
}

// NewCacheSource wraps src with an LRU of at most size tiles.
func NewCacheSource(src Source, size int) *CacheSource {
	return &CacheSource{
		src:   src,
		cache: lru.New(size),
	}
}

// Fetch returns a cached tile or fetches it once for all concurrent callers.
func (s *CacheSource) Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error) {
	if pixels, ok := s.get(id); ok {
		return pixels, nil
	}

	// The fetch is shared by every waiting caller, so one caller giving up
	// must not cancel it; each caller stops waiting on its own ctx below.
	// Source timeouts still bound it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id.String(), func() (any, error) {
		pixels, err := s.src.Fetch(shared, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache.Add(id, pixels)
		s.mu.Unlock()
		return pixels, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{Tile: id, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, asFetchError(id, res.Err)
		}
		return res.Val.(terrainrgb.Pixels), nil
	}
}

// Len returns the number of cached tiles.
func (s *CacheSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

func (s *CacheSource) get(id ID) (terrainrgb.Pixels, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(terrainrgb.Pixels), true
}
