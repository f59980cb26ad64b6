// Package testutil provides in-memory fakes for the analysis core.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/mediakit/probe"
)

// FakeSource is an in-memory probe.Source that records every fetch.
// It is safe for concurrent use.
type FakeSource struct {
	id   string
	data []byte

	mu       sync.Mutex
	fetches  []probe.ByteRange
	failErr  error
	failLeft int
}

// NewFakeSource returns a source backed by the provided data.
func NewFakeSource(id string, data []byte) *FakeSource {
	return &FakeSource{id: id, data: data}
}

// SourceID returns the identity the source was created with.
func (s *FakeSource) SourceID() string { return s.id }

// Size returns the length of the backing data.
func (s *FakeSource) Size() int64 { return int64(len(s.data)) }

// FailNext makes the next ReadRange call return err.
func (s *FakeSource) FailNext(err error) {
	s.FailTimes(1, err)
}

// FailTimes makes the next n ReadRange calls return err.
func (s *FakeSource) FailTimes(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
	s.failLeft = n
}

// ReadRange serves [off, off+length) from the backing data, clamped to its
// size. Reads past the end return an empty reader and io.EOF.
func (s *FakeSource) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLeft > 0 {
		s.failLeft--
		return nil, s.failErr
	}

	size := int64(len(s.data))
	if off >= size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	if length > size-off {
		length = size - off
	}
	s.fetches = append(s.fetches, probe.ByteRange{Offset: off, Length: length})
	return io.NopCloser(bytes.NewReader(s.data[off : off+length])), nil
}

// Fetches returns the ranges served so far, in order.
func (s *FakeSource) Fetches() []probe.ByteRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]probe.ByteRange, len(s.fetches))
	copy(out, s.fetches)
	return out
}

// FetchCount returns the number of ReadRange calls served.
func (s *FakeSource) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetches)
}

// InitCall records one InitBuffer invocation.
type InitCall struct {
	Total  int64
	Offset int64
}

// EngineStep is one scripted engine reaction: the status flags returned by
// the feed, the offset requested afterwards, and optional injected errors.
type EngineStep struct {
	Status  probe.Status
	Next    int64
	InitErr error
	FeedErr error
}

// ScriptedEngine replays a fixed sequence of reactions to the feeding
// protocol. When the script runs out, the last step repeats, so a one-step
// script describes an engine that always reacts the same way.
//
// A ScriptedEngine is not safe for concurrent use; sessions are
// sequential by design.
type ScriptedEngine struct {
	Steps       []EngineStep
	ReportText  string
	FinalizeErr error
	ReportErr   error

	step      int
	inits     []InitCall
	feeds     []int
	finalized bool
	closed    bool
}

// AlwaysForward returns an engine that accepts every buffer, always asks
// for the next contiguous bytes, and reports the given text.
func AlwaysForward(report string) *ScriptedEngine {
	return &ScriptedEngine{
		Steps: []EngineStep{
			{Status: probe.Status{Accepted: true, Updated: true}, Next: probe.ForwardSentinel},
		},
		ReportText: report,
	}
}

func (e *ScriptedEngine) current() EngineStep {
	if e.step >= len(e.Steps) {
		return e.Steps[len(e.Steps)-1]
	}
	return e.Steps[e.step]
}

// InitBuffer records the call and returns the step's injected init error.
func (e *ScriptedEngine) InitBuffer(totalSize, offset int64) error {
	e.inits = append(e.inits, InitCall{Total: totalSize, Offset: offset})
	return e.current().InitErr
}

// FeedBuffer records the buffer length and returns the step's status.
func (e *ScriptedEngine) FeedBuffer(p []byte) (probe.Status, error) {
	e.feeds = append(e.feeds, len(p))
	step := e.current()
	if step.FeedErr != nil {
		return probe.Status{}, step.FeedErr
	}
	if step.Status.Finalized {
		// NextOffset will not be consulted for this step.
		e.step++
	}
	return step.Status, nil
}

// NextOffset returns the step's requested offset and advances the script.
func (e *ScriptedEngine) NextOffset() int64 {
	next := e.current().Next
	e.step++
	return next
}

// Finalize records the end-of-stream signal.
func (e *ScriptedEngine) Finalize() error {
	e.finalized = true
	return e.FinalizeErr
}

// Report returns the scripted report text.
func (e *ScriptedEngine) Report() (string, error) {
	return e.ReportText, e.ReportErr
}

// Close records the close.
func (e *ScriptedEngine) Close() error {
	e.closed = true
	return nil
}

// Inits returns the recorded InitBuffer calls.
func (e *ScriptedEngine) Inits() []InitCall { return e.inits }

// Feeds returns the recorded buffer lengths.
func (e *ScriptedEngine) Feeds() []int { return e.feeds }

// Finalized reports whether Finalize was called.
func (e *ScriptedEngine) Finalized() bool { return e.finalized }

// Closed reports whether Close was called.
func (e *ScriptedEngine) Closed() bool { return e.closed }
