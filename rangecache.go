package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
)

const (
	// DefaultChunkSize is the default fetch granularity. Small requests are
	// rounded up to a full chunk for network efficiency.
	DefaultChunkSize int64 = 4 << 20

	// DefaultMaxCacheBytes is the default cache capacity.
	DefaultMaxCacheBytes int64 = 32 << 20
)

// ByteRange is a half-open interval [Offset, Offset+Length) within a
// resource. Immutable once created.
type ByteRange struct {
	Offset int64
	Length int64
}

// End returns the exclusive end offset of the range.
func (r ByteRange) End() int64 { return r.Offset + r.Length }

// Contains reports whether off falls inside the range.
func (r ByteRange) Contains(off int64) bool {
	return off >= r.Offset && off < r.End()
}

// CachedRange is a downloaded byte range. The buffer is owned by the cache;
// Bytes hands out a read-only borrow that is valid until the next cache
// mutation and must not be retained or modified.
type CachedRange struct {
	ByteRange
	data []byte
}

// Bytes returns the cached content.
func (r *CachedRange) Bytes() []byte { return r.data }

// RangeCache keeps downloaded byte ranges for exactly one resource at a
// time, bounding memory with an all-or-nothing eviction policy: when a
// fetch would push the cache over its capacity, everything is flushed.
// Switching to a different resource identity also flushes everything.
//
// The capacity is a soft bound. It is checked before a fetch grows the
// cache, so a single fetch may overshoot it by at most one chunk.
//
// A RangeCache is safe for concurrent use, though a single analysis
// session is strictly sequential; the lock matters only when a cache is
// shared across sessions.
type RangeCache struct {
	chunkSize int64
	maxBytes  int64

	mu          sync.Mutex
	source      string
	entries     []*CachedRange // sorted by Offset
	cachedBytes int64
}

// RangeCacheOption configures a RangeCache.
type RangeCacheOption func(*RangeCache)

// WithChunkSize sets the fetch granularity. Defaults to DefaultChunkSize.
func WithChunkSize(n int64) RangeCacheOption {
	return func(c *RangeCache) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithMaxBytes sets the cache capacity. Defaults to DefaultMaxCacheBytes.
func WithMaxBytes(n int64) RangeCacheOption {
	return func(c *RangeCache) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// NewRangeCache creates an empty cache.
func NewRangeCache(opts ...RangeCacheOption) *RangeCache {
	c := &RangeCache{
		chunkSize: DefaultChunkSize,
		maxBytes:  DefaultMaxCacheBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns a cached range containing off for the given source,
// fetching one chunk from the source on a miss. The returned range always
// contains off. Fetch failures wrap ErrRemoteFetch and are not retried.
func (c *RangeCache) GetOrFetch(ctx context.Context, src Source, off int64) (*CachedRange, error) {
	if off < 0 {
		return nil, fmt.Errorf("get range at offset %d: %w", off, ErrInvalidOffset)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id := src.SourceID(); id != c.source {
		c.flushLocked()
		c.source = id
	}

	if e := c.lookupLocked(off); e != nil {
		return e, nil
	}

	if c.cachedBytes+c.chunkSize >= c.maxBytes {
		c.flushLocked()
	}

	data, err := c.fetch(ctx, src, off)
	if err != nil {
		return nil, fmt.Errorf("fetch range at offset %d: %w", off, errors.Join(ErrRemoteFetch, err))
	}

	e := &CachedRange{
		ByteRange: ByteRange{Offset: off, Length: int64(len(data))},
		data:      data,
	}
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Offset > off })
	c.entries = slices.Insert(c.entries, i, e)
	c.cachedBytes += e.Length
	return e, nil
}

// Flush discards all entries and resets the byte accounting.
func (c *RangeCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// CachedBytes returns the total size of all cached entries.
func (c *RangeCache) CachedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedBytes
}

// Len returns the number of cached entries.
func (c *RangeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RangeCache) flushLocked() {
	c.entries = nil
	c.cachedBytes = 0
}

// lookupLocked finds an entry containing off. When overlapping entries both
// contain off, the one with the largest starting offset wins.
func (c *RangeCache) lookupLocked(off int64) *CachedRange {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Offset > off })
	for j := i - 1; j >= 0; j-- {
		if c.entries[j].Contains(off) {
			return c.entries[j]
		}
	}
	return nil
}

// fetch reads one chunk at off. The source may return fewer bytes at
// end-of-resource; a zero-byte read means off is past the end.
func (c *RangeCache) fetch(ctx context.Context, src Source, off int64) ([]byte, error) {
	rc, err := src.ReadRange(ctx, off, c.chunkSize)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty read at offset %d (source size %d)", off, src.Size())
	}
	return data, nil
}
