package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend implements Backend on the local filesystem. Blobs live at
// <root>/<bucket>/<path>. It is the fallback backend when no object-store
// locations are configured.
type LocalBackend struct {
	root string
}

// NewLocalBackend creates a filesystem-backed blob store rooted at root.
func NewLocalBackend(root string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalBackend{root: root}, nil
}

// Kind implements Backend.
func (b *LocalBackend) Kind() Kind { return KindLocal }

// blobPath resolves the on-disk location, rejecting addresses that would
// escape the root.
func (b *LocalBackend) blobPath(bucket, path string) (string, error) {
	full := filepath.Join(b.root, filepath.Clean(bucket), filepath.Clean(path))
	if !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob address %q/%q", bucket, path)
	}
	return full, nil
}

// Put implements Backend.
func (b *LocalBackend) Put(ctx context.Context, bucket, path string, data []byte) error {
	full, err := b.blobPath(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

// Get implements Backend.
func (b *LocalBackend) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	full, err := b.blobPath(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Delete implements Backend. Deleting a missing blob is a no-op.
func (b *LocalBackend) Delete(ctx context.Context, bucket, path string) error {
	full, err := b.blobPath(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
