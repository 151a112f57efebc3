// Package filestore abstracts where uploads and generated artifacts live.
// The local backend serves single-instance deployments; the GCS backend
// serves deployments where instances do not share a disk. Both expire old
// files through Sweep, which implements the artifact lifecycle: files are
// ephemeral and reclaimed, not persisted.
package filestore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a ref does not exist or has expired.
var ErrNotFound = errors.New("file not found or expired")

// Store persists opaque files addressed by ref.
type Store interface {
	// Save writes r under name and returns the ref to retrieve it later.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Open returns a reader for the ref, or ErrNotFound.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the ref. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error

	// Sweep deletes files older than maxAge and reports how many were
	// removed.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}
