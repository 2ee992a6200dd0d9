package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/minio/minio-go/v7"
	minioCredentials "github.com/minio/minio-go/v7/pkg/credentials"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

// SourceI fetches an uploaded object from cloud storage into a scratch path
type SourceI interface {
	// Fetch downloads key into dst, refusing objects larger than maxSize
	Fetch(ctx context.Context, key, dst string, maxSize int64) (int64, error)
	Name() string
}

// NewCloudSource - returns the source configured by CLOUD_TYPE, or nil when none is configured
func NewCloudSource(cfg *config.Config, log logger.Logger) (SourceI, error) {
	switch cfg.Cloud.Type {
	case "":
		return nil, nil
	case "minio":
		minioClient, err := minio.New(cfg.Cloud.Endpoint, &minio.Options{
			Creds:        minioCredentials.NewStaticV4(cfg.Cloud.AccessKey, cfg.Cloud.SecretKey, ""),
			Secure:       cfg.Cloud.Secure,
			Region:       cfg.Cloud.Region,
			BucketLookup: minio.BucketLookupPath,
		})
		if err != nil {
			log.Error("Error while creating minio client: ", logger.Error(err))
			return nil, err
		}

		return NewMinioStorage(cfg, log, minioClient), nil
	case "s3":
		awsCfg := &aws.Config{
			Region:      aws.String(cfg.Cloud.Region),
			Credentials: credentials.NewStaticCredentials(cfg.Cloud.AccessKey, cfg.Cloud.SecretKey, ""),
		}
		if cfg.Cloud.Endpoint != "" {
			awsCfg.Endpoint = aws.String(cfg.Cloud.Endpoint)
			awsCfg.S3ForcePathStyle = aws.Bool(true)
			awsCfg.DisableSSL = aws.Bool(!cfg.Cloud.Secure)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			log.Error("Error while creating aws session: ", logger.Error(err))
			return nil, err
		}

		return NewS3Storage(cfg, log, sess), nil
	}

	return nil, fmt.Errorf("unknown cloud type %q", cfg.Cloud.Type)
}
