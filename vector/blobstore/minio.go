package blobstore

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/viant/imgvec/vector"
)

// MinioOptions configures a MinIO (or other S3-compatible) connection.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Bucket    string
	Prefix    string
}

// MinioBucket stores blobs in a MinIO bucket.
type MinioBucket struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioBucket connects to MinIO and creates the bucket when missing.
func NewMinioBucket(ctx context.Context, opts MinioOptions) (*MinioBucket, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, vector.Unavailable(err)
		}
	}
	return &MinioBucket{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (b *MinioBucket) key(name string) string {
	return path.Join(b.prefix, name)
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Get implements Bucket.
func (b *MinioBucket) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.key(name), minio.GetObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, vector.ErrNotFound
		}
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isMinioNotFound(err) {
			return nil, vector.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put implements Bucket.
func (b *MinioBucket) Put(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, b.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

// Delete implements Bucket.
func (b *MinioBucket) Delete(ctx context.Context, name string) error {
	err := b.client.RemoveObject(ctx, b.bucket, b.key(name), minio.RemoveObjectOptions{})
	if err != nil && isMinioNotFound(err) {
		return nil
	}
	return err
}

// List implements Bucket.
func (b *MinioBucket) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    b.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, b.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ Bucket = (*MinioBucket)(nil)
