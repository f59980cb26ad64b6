package probe

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResource is returned when a resource reports zero length at
	// probe time.
	ErrEmptyResource = errors.New("probe: resource is empty")

	// ErrInvalidOffset is returned when a negative offset is requested,
	// either by a caller or by the engine. It indicates a contract
	// violation, not a transient condition.
	ErrInvalidOffset = errors.New("probe: invalid offset")

	// ErrRemoteFetch is returned when fetching a byte range from the
	// source fails. Fetches are never retried at this layer.
	ErrRemoteFetch = errors.New("probe: remote fetch failed")

	// ErrEngineInit is returned when the engine rejects a buffer session.
	ErrEngineInit = errors.New("probe: engine rejected buffer init")

	// ErrEngineFeed is returned when the engine fails on a buffer handoff.
	ErrEngineFeed = errors.New("probe: engine rejected buffer")

	// ErrEmptyReport is returned when the engine finalizes but produces
	// no report text.
	ErrEmptyReport = errors.New("probe: engine produced an empty report")

	// ErrProtocolDivergence is returned when the engine keeps requesting
	// offsets past the configured iteration limit without finalizing.
	ErrProtocolDivergence = errors.New("probe: engine exceeded iteration limit without finalizing")
)

// AnalysisError annotates a session failure with the resource identity and
// the byte offset in play when it occurred, so operators can diagnose
// exactly where in the stream the failure happened.
//
// Match the underlying cause with errors.Is against the package sentinels
// or context.Canceled.
type AnalysisError struct {
	Resource string
	Offset   int64
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s at offset %d: %v", e.Resource, e.Offset, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
