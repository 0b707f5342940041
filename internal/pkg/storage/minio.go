package storage

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/conf"
)

// MinIOStore keeps blobs in a single MinIO bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func newMinIOClient(cfg *conf.MinIOConfig, logger *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("minio client initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("use_ssl", cfg.UseSSL),
	)
	return client, nil
}

func NewMinIOStore(client *minio.Client, bucket string, logger *zap.Logger) *MinIOStore {
	return &MinIOStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

func (s *MinIOStore) Save(ctx context.Context, path string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{})
	if err != nil {
		return err
	}
	s.logger.Debug("object stored",
		zap.String("bucket", s.bucket),
		zap.String("object", path),
	)
	return nil
}

func (s *MinIOStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; force the first read so missing objects fail here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *MinIOStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

func (s *MinIOStore) Delete(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}
