// Package blobstore stores uploaded images and returns the path under which
// they are served. Only the path is persisted with a post.
package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophblog/internal/server/config"
)

// ErrNotImage is returned for data that does not sniff as a supported image.
var ErrNotImage = errors.New("unsupported image type")

// Storage stores an image and returns the public path of the stored object.
// The stored name's extension follows the sniffed image type.
type Storage interface {
	Store(ctx context.Context, data []byte) (string, error)
}

// New returns the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStorage(cfg.UploadDir, cfg.UploadURLPrefix)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
