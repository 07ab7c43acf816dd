package tiles

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Faultbox/demview/internal/logger"
	"github.com/Faultbox/demview/pkg/terrainrgb"
)

// RetrySource retries transient fetch failures with exponential backoff.
// Client errors and undecodable images fail immediately.
type RetrySource struct {
	src             Source
	retries         uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewRetrySource wraps src so each tile is attempted up to retries+1 times.
func NewRetrySource(src Source, retries int, initialInterval time.Duration) *RetrySource {
	if retries < 0 {
		retries = 0
	}
	if initialInterval <= 0 {
		initialInterval = 250 * time.Millisecond
	}
	return &RetrySource{
		src:             src,
		retries:         uint64(retries),
		initialInterval: initialInterval,
		maxInterval:     8 * initialInterval,
	}
}

// Fetch calls the wrapped source until it succeeds, fails permanently, or
// runs out of attempts.
func (s *RetrySource) Fetch(ctx context.Context, id ID) (terrainrgb.Pixels, error) {
	var pixels terrainrgb.Pixels

	operation := func() error {
		p, err := s.src.Fetch(ctx, id)
		if err == nil {
			pixels = p
			return nil
		}
		var fe *FetchError
		if errors.As(err, &fe) && !fe.Temporary() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("tile fetch failed, retrying",
			zap.Stringer("tile", id),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxInterval = s.maxInterval
	b.MaxElapsedTime = 0

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx),
		notify)
	if err != nil {
		return nil, asFetchError(id, err)
	}
	return pixels, nil
}
