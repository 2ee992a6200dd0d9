package storage

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

type S3Storage struct {
	cfg     *config.Config
	log     logger.Logger
	session *session.Session
}

// NewS3Storage ...
func NewS3Storage(cfg *config.Config, log logger.Logger, session *session.Session) *S3Storage {
	return &S3Storage{
		cfg:     cfg,
		log:     log,
		session: session,
	}
}

func (s *S3Storage) Name() string {
	return "s3"
}

func (s *S3Storage) Fetch(ctx context.Context, key, dst string, maxSize int64) (int64, error) {
	const op = "fetch from s3"
	s.log.Info("[DOWNLOADING] ", logger.String("bucket", s.cfg.Cloud.Bucket), logger.String("key", key))

	head, err := s3.New(s.session).HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Cloud.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, models.InvalidRequestError(op, "object %q not found", key)
		}
		s.log.Error("Error while reading object info from S3", logger.Error(err))
		return 0, models.IOError(op, err)
	}

	size := aws.Int64Value(head.ContentLength)
	if maxSize > 0 && size > maxSize {
		return 0, models.InvalidRequestError(op, "object %q is %d bytes, limit is %d", key, size, maxSize)
	}

	file, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, models.IOError(op, err)
	}

	downloader := s3manager.NewDownloader(s.session)
	n, err := downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Cloud.Bucket),
		Key:    aws.String(key),
	})
	// close file after downloading from the bucket
	closeErr := file.Close()

	if err != nil {
		s.log.Error("Error while downloading from S3", logger.Error(err))
		return n, models.IOError(op, err)
	}
	if closeErr != nil {
		return n, models.IOError(op, closeErr)
	}

	s.log.Info("Object is downloaded", logger.String("key", key), logger.Int64("size", n))
	return n, nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
