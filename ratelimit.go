package probe

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// LimitSource decorates a Source with a token-bucket bandwidth limit.
// Each ReadRange waits for one token per requested byte before delegating,
// capping the sustained fetch rate at the limiter's configured bytes per
// second.
type LimitSource struct {
	src     Source
	limiter *rate.Limiter
}

// NewLimitSource wraps src with the given limiter. The limiter's burst
// should be at least the cache chunk size; larger requests are charged in
// burst-sized installments.
func NewLimitSource(src Source, limiter *rate.Limiter) *LimitSource {
	return &LimitSource{src: src, limiter: limiter}
}

// SourceID returns the wrapped source's identity.
func (s *LimitSource) SourceID() string { return s.src.SourceID() }

// Size returns the wrapped source's size.
func (s *LimitSource) Size() int64 { return s.src.Size() }

// ReadRange waits for the byte budget, then delegates.
func (s *LimitSource) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	remaining := length
	for remaining > 0 {
		n := remaining
		if burst := int64(s.limiter.Burst()); n > burst {
			n = burst
		}
		if err := s.limiter.WaitN(ctx, int(n)); err != nil {
			return nil, err
		}
		remaining -= n
	}
	return s.src.ReadRange(ctx, off, length)
}
