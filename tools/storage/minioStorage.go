package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

type MinioStorage struct {
	cfg         *config.Config
	log         logger.Logger
	minioClient *minio.Client
}

// NewMinioStorage ...
func NewMinioStorage(cfg *config.Config, log logger.Logger, minioClient *minio.Client) *MinioStorage {
	return &MinioStorage{
		cfg:         cfg,
		log:         log,
		minioClient: minioClient,
	}
}

func (s *MinioStorage) Name() string {
	return "minio"
}

func (s *MinioStorage) Fetch(ctx context.Context, key, dst string, maxSize int64) (int64, error) {
	const op = "fetch from minio"
	s.log.Info("[DOWNLOADING] ", logger.String("bucket", s.cfg.Cloud.Bucket), logger.String("key", key))

	stat, err := s.minioClient.StatObject(ctx, s.cfg.Cloud.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, models.InvalidRequestError(op, "object %q not found", key)
		}
		s.log.Error("Error while reading object info from Minio", logger.Error(err))
		return 0, models.IOError(op, err)
	}

	if maxSize > 0 && stat.Size > maxSize {
		return 0, models.InvalidRequestError(op, "object %q is %d bytes, limit is %d", key, stat.Size, maxSize)
	}

	if err := s.minioClient.FGetObject(ctx, s.cfg.Cloud.Bucket, key, dst, minio.GetObjectOptions{}); err != nil {
		s.log.Error("Error while downloading from Minio", logger.Error(err))
		return 0, models.IOError(op, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, models.IOError(op, err)
	}
	if info.Size() != stat.Size {
		return info.Size(), models.IOError(op, fmt.Errorf("downloaded %d bytes, expected %d", info.Size(), stat.Size))
	}

	s.log.Info("Object is downloaded", logger.String("key", key), logger.Int64("size", info.Size()))
	return info.Size(), nil
}
