package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultMaxIterations bounds the feeding loop. An engine that seeks
// backward indefinitely without finalizing would otherwise never terminate.
const DefaultMaxIterations = 4096

// Analyzer drives an analysis engine over a remote resource, fetching only
// the byte ranges the engine asks for.
//
// Each session runs an offset negotiation loop: the analyzer feeds the
// engine a buffer, the engine reports status flags and the offset it wants
// next, and the analyzer serves that offset from its range cache, reaching
// out to the source only on a miss. The loop ends when the engine
// finalizes, when it reads past the end of the resource, or on the first
// error; no partial report is ever returned.
//
// The cache outlives sessions, so analyzing the same resource twice reuses
// its downloaded ranges. Sessions are strictly sequential; run concurrent
// analyses on separate Analyzer instances.
type Analyzer struct {
	engine        Engine
	cache         *RangeCache
	maxIterations int
	logger        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache sets the range cache. Defaults to a fresh cache with default
// chunk size and capacity.
func WithCache(c *RangeCache) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.cache = c
		}
	}
}

// WithMaxIterations sets the feeding-loop ceiling. Exceeding it fails the
// session with ErrProtocolDivergence. Defaults to DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithLogger sets a logger for per-iteration debug output. The analyzer is
// silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer around the given engine.
func New(engine Engine, opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:        engine,
		maxIterations: DefaultMaxIterations,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = NewRangeCache()
	}
	return a
}

// Cache returns the analyzer's range cache.
func (a *Analyzer) Cache() *RangeCache { return a.cache }

// Analyze runs one analysis session against src and returns the engine's
// report. All failures are fatal to the session and are returned as an
// *AnalysisError carrying the resource identity and the offset in play.
func (a *Analyzer) Analyze(ctx context.Context, src Source) (*Report, error) {
	total := src.Size()
	if total == 0 {
		return nil, a.fail(src, 0, ErrEmptyResource)
	}
	a.logger.Debug("session start", "source", src.SourceID(), "size", total)

	var offset int64
	for i := 0; ; i++ {
		if i >= a.maxIterations {
			return nil, a.fail(src, offset, ErrProtocolDivergence)
		}
		if err := ctx.Err(); err != nil {
			return nil, a.fail(src, offset, err)
		}

		r, err := a.cache.GetOrFetch(ctx, src, offset)
		if err != nil {
			return nil, a.fail(src, offset, err)
		}

		if err := a.engine.InitBuffer(total, r.Offset); err != nil {
			return nil, a.fail(src, r.Offset, errors.Join(ErrEngineInit, err))
		}
		status, err := a.engine.FeedBuffer(r.Bytes())
		if err != nil {
			return nil, a.fail(src, r.Offset, errors.Join(ErrEngineFeed, err))
		}
		a.logger.Debug("fed range",
			"offset", r.Offset,
			"length", r.Length,
			"accepted", status.Accepted,
			"updated", status.Updated,
			"finalized", status.Finalized,
		)

		if status.Finalized {
			break
		}

		switch next := a.engine.NextOffset(); {
		case next == ForwardSentinel:
			// Continue from the end of the range just fed, not the end of
			// what was originally requested.
			offset = r.End()
		case next < 0:
			return nil, a.fail(src, r.Offset, fmt.Errorf("engine requested offset %d: %w", next, ErrInvalidOffset))
		default:
			offset = next
		}

		if offset >= total {
			// Logical end-of-resource, even if the engine never set the
			// finalized flag.
			break
		}
	}

	return a.finalize(src, total, offset)
}

func (a *Analyzer) finalize(src Source, total, offset int64) (*Report, error) {
	if err := a.engine.Finalize(); err != nil {
		return nil, a.fail(src, offset, errors.Join(ErrEngineFeed, err))
	}
	text, err := a.engine.Report()
	if err != nil {
		return nil, a.fail(src, offset, errors.Join(ErrEmptyReport, err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, a.fail(src, offset, ErrEmptyReport)
	}

	a.logger.Debug("session done", "source", src.SourceID(), "report_bytes", len(text))
	return &Report{
		Resource: src.SourceID(),
		Size:     total,
		Text:     text,
	}, nil
}

func (a *Analyzer) fail(src Source, offset int64, err error) error {
	a.logger.Error("session failed", "source", src.SourceID(), "offset", offset, "error", err)
	return &AnalysisError{
		Resource: src.SourceID(),
		Offset:   offset,
		Err:      err,
	}
}
