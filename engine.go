package probe

// ForwardSentinel is the reserved NextOffset value meaning the engine has
// no seek target and wants the next contiguous bytes.
const ForwardSentinel int64 = -1

// Status reports the engine's reaction to a buffer handoff. The flags are
// independent booleans, not an exclusive enum: a single handoff can both
// update the parse state and finalize it.
type Status struct {
	// Accepted reports that the engine recognized the byte stream.
	Accepted bool

	// Filled reports that the engine extracted everything it can from the
	// bytes seen so far.
	Filled bool

	// Updated reports that the parse state changed during this handoff.
	Updated bool

	// Finalized reports that the engine needs no further input.
	Finalized bool
}

// Engine is the buffer-feeding contract of an external analysis engine.
//
// The engine consumes the resource incrementally: InitBuffer declares the
// absolute offset the next buffer corresponds to, FeedBuffer hands over the
// bytes, and NextOffset reports where the engine wants to read next. Once
// the engine finalizes (or the driver reaches logical end-of-resource),
// Finalize signals end-of-stream and Report retrieves the result.
//
// Implementations wrap native libraries; calls are synchronous and the
// buffer passed to FeedBuffer must remain valid and unmoved for the
// duration of the call.
type Engine interface {
	// InitBuffer starts a buffer session: totalSize is the full resource
	// length, offset the absolute position of the upcoming buffer.
	InitBuffer(totalSize, offset int64) error

	// FeedBuffer hands the engine the next chunk of bytes and returns its
	// status flags.
	FeedBuffer(p []byte) (Status, error)

	// NextOffset returns the absolute offset the engine wants next, or
	// ForwardSentinel when it simply wants the following contiguous bytes.
	NextOffset() int64

	// Finalize signals end-of-stream. No further buffers may be fed.
	Finalize() error

	// Report returns the analysis report produced after Finalize.
	Report() (string, error)

	// Close releases the engine's resources.
	Close() error
}
