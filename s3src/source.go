// Package s3src provides a probe.Source backed by ranged S3 object reads.
package s3src

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned when the object does not exist.
var ErrNotFound = errors.New("s3src: object not found")

// Client is the subset of the S3 API the source uses. *s3.Client
// satisfies it.
type Client interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source implements ranged reads of an S3 object. It satisfies
// probe.Source.
//
// The size and ETag are probed once at construction; reads carry IfMatch
// so the object cannot silently change mid-session.
type Source struct {
	client Client
	bucket string
	key    string
	size   int64
	etag   string
}

// NewDefaultClient builds an S3 client from the ambient AWS configuration
// (environment, shared config, instance role).
func NewDefaultClient(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// NewSource creates a Source for the given object and probes its size.
func NewSource(ctx context.Context, client Client, bucket, key string) (*Source, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("head s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("head s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("head s3://%s/%s: %w", bucket, key, err)
	}

	return &Source{
		client: client,
		bucket: bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
		etag:   aws.ToString(head.ETag),
	}, nil
}

// SourceID returns the object's s3:// URL.
func (s *Source) SourceID() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Size returns the object's total size.
func (s *Source) Size() int64 { return s.size }

// ReadRange returns a reader for the specified byte range. The range is
// clamped to the object size; reads past the end return io.EOF.
func (s *Source) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("read range length %d: negative length", length)
	}
	if off < 0 {
		return nil, fmt.Errorf("read range %d: negative offset", off)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if off >= s.size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	if length > s.size-off {
		length = s.size - off
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+length-1)),
	}
	if s.etag != "" {
		in.IfMatch = aws.String(s.etag)
	}

	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, ErrNotFound)
		}
		return nil, fmt.Errorf("get range [%d,%d) of s3://%s/%s: %w", off, off+length, s.bucket, s.key, err)
	}
	return out.Body, nil
}
