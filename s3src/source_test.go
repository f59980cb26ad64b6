package s3src_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediakit/probe/s3src"
)

// fakeS3 serves one in-memory object through the Client subset.
type fakeS3 struct {
	data    []byte
	etag    string
	missing bool

	lastRange   string
	lastIfMatch string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.missing {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(f.data))),
		ETag:          aws.String(f.etag),
	}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.missing {
		return nil, &types.NoSuchKey{}
	}
	f.lastRange = aws.ToString(in.Range)
	f.lastIfMatch = aws.ToString(in.IfMatch)

	start, end, err := parseRange(f.lastRange, int64(len(f.data)))
	if err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(f.data[start : end+1])),
		ContentLength: aws.Int64(end - start + 1),
	}, nil
}

func parseRange(value string, size int64) (int64, int64, error) {
	var start, end int64
	trimmed, ok := strings.CutPrefix(value, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("bad range %q", value)
	}
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad range %q", value)
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	end, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if end >= size {
		end = size - 1
	}
	return start, end, nil
}

func TestSourceProbeAndRead(t *testing.T) {
	t.Parallel()

	client := &fakeS3{data: []byte("s3 object payload"), etag: `"abc123"`}
	src, err := s3src.NewSource(context.Background(), client, "media", "in/movie.mkv")
	require.NoError(t, err)

	assert.Equal(t, "s3://media/in/movie.mkv", src.SourceID())
	assert.Equal(t, int64(17), src.Size())

	rc, err := src.ReadRange(context.Background(), 3, 6)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("object"), got)
	assert.Equal(t, "bytes=3-8", client.lastRange)
	assert.Equal(t, `"abc123"`, client.lastIfMatch, "reads pin the probed ETag")
}

func TestSourceReadRangeClamped(t *testing.T) {
	t.Parallel()

	client := &fakeS3{data: []byte("0123456789")}
	src, err := s3src.NewSource(context.Background(), client, "media", "k")
	require.NoError(t, err)

	rc, err := src.ReadRange(context.Background(), 8, 100)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("89"), got)

	_, err = src.ReadRange(context.Background(), 10, 10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSourceNotFound(t *testing.T) {
	t.Parallel()

	client := &fakeS3{missing: true}
	_, err := s3src.NewSource(context.Background(), client, "media", "gone")
	require.ErrorIs(t, err, s3src.ErrNotFound)
}

func TestSourceNegativeArguments(t *testing.T) {
	t.Parallel()

	client := &fakeS3{data: []byte("x")}
	src, err := s3src.NewSource(context.Background(), client, "media", "k")
	require.NoError(t, err)

	_, err = src.ReadRange(context.Background(), -1, 10)
	require.Error(t, err)
	_, err = src.ReadRange(context.Background(), 0, -1)
	require.Error(t, err)
}
