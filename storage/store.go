// Package storage is the opaque object-store boundary for complaint and
// proof images. Keys are opaque to the engine.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"civicfix/models"

	"github.com/google/uuid"
)

// ObjectStore puts and gets opaque byte blobs
type ObjectStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (key string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// LocalStore writes objects to a base directory on disk. Keys are
// uuid-with-extension filenames, never client-controlled paths.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the store and its base directory
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put stores data and returns the generated key
func (s *LocalStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", models.NewDomainError(models.ErrExternalUnavailable, "storage put cancelled: %v", err)
	}
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	key := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.basePath, key), data, 0o644); err != nil {
		return "", models.NewDomainError(models.ErrExternalUnavailable, "storage put failed: %v", err)
	}
	return key, nil
}

// Get reads a previously stored object
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewDomainError(models.ErrExternalUnavailable, "storage get cancelled: %v", err)
	}
	// Keys are generated server-side; reject anything that looks like a path.
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return nil, models.NewDomainError(models.ErrValidation, "invalid object key")
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, key))
	if os.IsNotExist(err) {
		return nil, models.NewDomainError(models.ErrNotFound, "object %s not found", key)
	}
	if err != nil {
		return nil, models.NewDomainError(models.ErrExternalUnavailable, "storage get failed: %v", err)
	}
	return data, nil
}
