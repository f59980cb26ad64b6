package mediainfo

import (
	"errors"

	"github.com/mediakit/probe"
)

// DefaultInform is the report format requested from the library.
const DefaultInform = "JSON"

type engineConfig struct {
	inform   string
	complete bool
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithInform sets the report format ("JSON", "XML", "HTML", or "" for the
// library's plain-text default). Defaults to DefaultInform.
func WithInform(format string) EngineOption {
	return func(cfg *engineConfig) {
		cfg.inform = format
	}
}

// WithComplete requests the full field set instead of the summary.
func WithComplete() EngineOption {
	return func(cfg *engineConfig) {
		cfg.complete = true
	}
}

// Engine wraps one MediaInfo handle. It satisfies probe.Engine.
//
// An Engine holds native state and must not be shared across concurrent
// sessions; create one per analysis and Close it when done.
type Engine struct {
	lib    *Lib
	handle uintptr
}

// NewEngine creates an engine handle and applies the report options.
func (l *Lib) NewEngine(opts ...EngineOption) (*Engine, error) {
	cfg := engineConfig{inform: DefaultInform}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := l.newHandle()
	if h == 0 {
		return nil, errors.New("mediainfo: MediaInfo_New returned a null handle")
	}
	e := &Engine{lib: l, handle: h}

	if cfg.inform != "" {
		l.optionFn(h, "Inform", cfg.inform)
	}
	if cfg.complete {
		l.optionFn(h, "Complete", "1")
	}
	return e, nil
}

// InitBuffer starts a buffer session at the given absolute offset.
func (e *Engine) InitBuffer(totalSize, offset int64) error {
	e.lib.openBufferInit(e.handle, uint64(totalSize), uint64(offset))
	return nil
}

// FeedBuffer hands the bytes to the parser and decodes its status bits.
//
// The slice is passed to native code by address. purego keeps Go pointer
// arguments pinned for the duration of the call, and the call is
// synchronous, so the loan cannot outlive it.
func (e *Engine) FeedBuffer(p []byte) (probe.Status, error) {
	var ptr *byte
	if len(p) > 0 {
		ptr = &p[0]
	}
	bits := e.lib.openBufferContinue(e.handle, ptr, uintptr(len(p)))
	return decodeStatus(bits), nil
}

// NextOffset returns the parser's requested offset, mapping the library's
// "no seek request" value to probe.ForwardSentinel.
func (e *Engine) NextOffset() int64 {
	v := e.lib.goToGet(e.handle)
	if v == noSeekRequest {
		return probe.ForwardSentinel
	}
	return int64(v)
}

// Finalize signals end-of-stream.
func (e *Engine) Finalize() error {
	e.lib.openBufferFinalize(e.handle)
	return nil
}

// Report returns the report document in the configured Inform format.
func (e *Engine) Report() (string, error) {
	return e.lib.informFn(e.handle, 0), nil
}

// Close releases the native handle. The engine must not be used after.
func (e *Engine) Close() error {
	if e.handle != 0 {
		e.lib.closeHandle(e.handle)
		e.lib.deleteHandle(e.handle)
		e.handle = 0
	}
	return nil
}
