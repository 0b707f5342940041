// Package storage abstracts where image files live. Originals and
// thumbnails each get their own Store, backed by a local directory or
// a MinIO bucket depending on configuration.
package storage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/damianb/minori/internal/conf"
)

// Store reads and writes blobs addressed by slash-separated relative paths.
type Store interface {
	Save(ctx context.Context, path string, r io.Reader, size int64) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// NewStores builds the originals store and the thumbnails store from
// the storage configuration.
func NewStores(cfg *conf.StorageConfig, logger *zap.Logger) (uploads, thumbs Store, err error) {
	switch cfg.Backend {
	case "disk", "":
		return NewDiskStore(cfg.UploadRoot), NewDiskStore(cfg.ThumbRoot), nil
	case "minio":
		client, err := newMinIOClient(&cfg.MinIO, logger)
		if err != nil {
			return nil, nil, err
		}
		uploads = NewMinIOStore(client, cfg.MinIO.UploadBucket, logger)
		thumbs = NewMinIOStore(client, cfg.MinIO.ThumbBucket, logger)
		return uploads, thumbs, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
