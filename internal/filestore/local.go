package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local stores files in a directory on disk. Refs are bare filenames;
// anything resembling a path escape is rejected.
type Local struct {
	root string
}

// NewLocal creates the directory if needed and returns a store rooted there.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("filestore: invalid ref %q", ref)
	}
	return filepath.Join(l.root, ref), nil
}

// Save writes the file under name. The ref is the name itself.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	p, err := l.path(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("filestore: creating %s: %w", p, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("filestore: writing %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("filestore: closing %s: %w", p, err)
	}
	return name, nil
}

// Open returns a reader for the stored file.
func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := l.path(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: opening %s: %w", p, err)
	}
	return f, nil
}

// Delete removes the stored file. A missing ref is not an error.
func (l *Local) Delete(ctx context.Context, ref string) error {
	p, err := l.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: removing %s: %w", p, err)
	}
	return nil
}

// Sweep deletes files whose modification time is older than maxAge.
func (l *Local) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return 0, fmt.Errorf("filestore: listing %s: %w", l.root, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.root, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

var _ Store = (*Local)(nil)
