package probe

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryMax      = 3
	defaultRetryInterval = 250 * time.Millisecond
)

// RetrySource decorates a Source with exponential-backoff retries on
// ReadRange. The analyzer never retries; when retry-with-backoff is
// wanted it belongs here, on the remote side of the Source port, so the
// feeding loop's termination argument stays simple.
type RetrySource struct {
	src      Source
	max      uint64
	interval time.Duration
}

// RetryOption configures a RetrySource.
type RetryOption func(*RetrySource)

// RetryWithMax sets the number of retries after the initial attempt.
func RetryWithMax(n uint64) RetryOption {
	return func(s *RetrySource) {
		s.max = n
	}
}

// RetryWithInterval sets the initial backoff interval.
func RetryWithInterval(d time.Duration) RetryOption {
	return func(s *RetrySource) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewRetrySource wraps src with retries.
func NewRetrySource(src Source, opts ...RetryOption) *RetrySource {
	s := &RetrySource{
		src:      src,
		max:      defaultRetryMax,
		interval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceID returns the wrapped source's identity.
func (s *RetrySource) SourceID() string { return s.src.SourceID() }

// Size returns the wrapped source's size.
func (s *RetrySource) Size() int64 { return s.src.Size() }

// ReadRange delegates to the wrapped source, retrying failed attempts
// with exponential backoff until the retry budget or the context runs out.
func (s *RetrySource) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.interval

	return backoff.RetryWithData(func() (io.ReadCloser, error) {
		return s.src.ReadRange(ctx, off, length)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, s.max), ctx))
}
