package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/viant/imgvec/vector"
)

// S3Options configures an S3 bucket. Endpoint overrides the AWS endpoint
// and switches to path-style addressing.
type S3Options struct {
	Region   string
	Endpoint string
	Bucket   string
	Prefix   string
}

// S3Bucket stores blobs in an S3 bucket.
type S3Bucket struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Bucket loads the default AWS configuration and returns a bucket.
func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3BucketFromClient(client, opts.Bucket, opts.Prefix), nil
}

// NewS3BucketFromClient wraps an existing client.
func NewS3BucketFromClient(client *s3.Client, bucket, prefix string) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Bucket) key(name string) string {
	return path.Join(b.prefix, name)
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

// Get implements Bucket.
func (b *S3Bucket) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, vector.ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Put implements Bucket.
func (b *S3Bucket) Put(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Delete implements Bucket.
func (b *S3Bucket) Delete(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	return err
}

// List implements Bucket.
func (b *S3Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.key(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), b.prefix)
			name = strings.TrimPrefix(name, "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ Bucket = (*S3Bucket)(nil)
