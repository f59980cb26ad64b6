package probe

import (
	"context"
	"io"
)

// Source provides ranged read access to a single remote resource.
//
// Size is the total content length, probed when the source is constructed
// and fixed for its lifetime. ReadRange returns a reader for
// [off, off+length); the data may be shorter than requested only when the
// range extends past the end of the resource.
//
// SourceID identifies the resource (typically its URL). Cache entries are
// valid only for one identity at a time, so two sources reading the same
// bytes must report the same identity to share cached ranges.
type Source interface {
	SourceID() string
	Size() int64
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}
