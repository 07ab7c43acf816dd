package tiles

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/logger"
)

// DefaultTimeout bounds a remote fetch when Options.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// Options selects and configures the tile source chain.
type Options struct {
	URLTemplate string
	AccessToken string
	Dir         string // Local tile tree; takes priority over URLTemplate
	Timeout     time.Duration // 0 means DefaultTimeout
	Retries     int
	RetryDelay  time.Duration
	CacheSize   int // 0 disables caching
}

// New builds the source chain: base source, then retries, then the cache,
// so cached and in-flight tiles are never retried twice.
func New(opts Options) (Source, error) {
	var src Source
	switch {
	case opts.Dir != "":
		src = NewDirSource(opts.Dir)
		logger.Info("using local tile directory", zap.String("dir", opts.Dir))
	case opts.URLTemplate != "":
		if opts.Timeout <= 0 {
			opts.Timeout = DefaultTimeout
		}
		src = NewHTTPSource(opts.URLTemplate, opts.AccessToken, opts.Timeout)
		logger.Info("using remote tile source",
			zap.String("template", opts.URLTemplate),
			zap.Duration("timeout", opts.Timeout),
			zap.Bool("token", opts.AccessToken != ""))
	default:
		return nil, errors.New("tiles: no tile directory or url template configured")
	}

	if opts.Retries > 0 {
		src = NewRetrySource(src, opts.Retries, opts.RetryDelay)
	}
	if opts.CacheSize > 0 {
		src = NewCacheSource(src, opts.CacheSize)
	}
	return src, nil
}
