package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/imgvec/vector"
)

const tempPrefix = ".tmp-"

// LocalBucket stores blobs as files under a root directory.
type LocalBucket struct {
	root string
}

// NewLocalBucket creates root if needed and returns a bucket rooted there.
func NewLocalBucket(root string) (*LocalBucket, error) {
	if root == "" {
		return nil, errors.New("blobstore: local root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, vector.Unavailable(fmt.Errorf("blobstore: create root: %w", err))
	}
	return &LocalBucket{root: root}, nil
}

func (b *LocalBucket) path(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

// Get implements Bucket.
func (b *LocalBucket) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, vector.ErrNotFound
	}
	return data, err
}

// Put implements Bucket. The blob is written to a temporary file in the
// same directory and renamed into place.
func (b *LocalBucket) Put(_ context.Context, name string, data []byte) error {
	dst := b.path(name)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Delete implements Bucket. Missing blobs are ignored.
func (b *LocalBucket) Delete(_ context.Context, name string) error {
	err := os.Remove(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List implements Bucket.
func (b *LocalBucket) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

var _ Bucket = (*LocalBucket)(nil)
