package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCS stores files as objects under a prefix in a Cloud Storage bucket.
// It assumes Application Default Credentials are configured.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a store backed by the given bucket. prefix namespaces the
// objects so uploads and artifacts can share a bucket.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("filestore: create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCS) object(ref string) string {
	if g.prefix == "" {
		return ref
	}
	return g.prefix + "/" + ref
}

// Save uploads the file to the bucket. The ref is the object name without
// the prefix.
func (g *GCS) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(g.object(name)).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("filestore: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("filestore: close GCS writer: %w", err)
	}
	return name, nil
}

// Open returns a reader for the object.
func (g *GCS) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(g.bucket).Object(g.object(ref)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: open GCS object reader: %w", err)
	}
	return r, nil
}

// Delete removes the object. A missing object is not an error.
func (g *GCS) Delete(ctx context.Context, ref string) error {
	err := g.client.Bucket(g.bucket).Object(g.object(ref)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("filestore: delete GCS object: %w", err)
	}
	return nil
}

// Sweep deletes objects under the prefix created before the cutoff.
func (g *GCS) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix})

	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("filestore: list GCS objects: %w", err)
		}
		if attrs.Created.Before(cutoff) {
			if err := g.client.Bucket(g.bucket).Object(attrs.Name).Delete(ctx); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Close releases the underlying storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

var _ Store = (*GCS)(nil)
