// Package blob stores file bodies. The interface is deliberately narrow so an
// object-store implementation can replace the disk store without touching the
// pipeline.
package blob

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"medvault/pkg/platform/sentinel"
)

// Store persists opaque file bodies keyed by a relative path.
type Store interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	// Wipe overwrites the stored bytes with random data of the same length
	// before removing them, so deleted content is not recoverable from the
	// underlying medium. Wiping an absent path is a no-op.
	Wipe(ctx context.Context, path string) error
}

// DiskStore keeps blobs under a root directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Write(_ context.Context, path string, data []byte) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *DiskStore) Read(_ context.Context, path string) ([]byte, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", path, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *DiskStore) Wipe(_ context.Context, path string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat blob: %w", err)
	}

	noise := make([]byte, info.Size())
	if _, err := rand.Read(noise); err != nil {
		return fmt.Errorf("generate wipe noise: %w", err)
	}
	if err := os.WriteFile(full, noise, 0o600); err != nil {
		return fmt.Errorf("overwrite blob: %w", err)
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
