package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/metrics"
)

type fileStorage struct {
	log   logger.Logger
	dir   string
	retry RetryConfig
	sleep func(time.Duration)
}

// FileOperationsI manages the per-request scratch files
type FileOperationsI interface {
	// Allocate returns a fresh scratch path; nothing is created on disk
	Allocate(prefix, ext string) string
	Write(path string, data []byte) error
	WriteFrom(path string, r io.Reader) (int64, error)
	// Remove deletes path, retrying transient failures. It never fails the caller.
	Remove(path string)
	RemoveAll(paths ...string)
	Dir() string
}

// RetryConfig bounds how hard Remove tries before giving up
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the defaults used when the configuration is empty
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

func NewFileStorage(cfg *config.Config, log logger.Logger) (FileOperationsI, error) {
	dir := cfg.TempFolderPath
	if dir == "" {
		dir = os.TempDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("Error while creating the scratch directory", logger.String("dir", dir), logger.Error(err))
		return nil, err
	}

	retry := DefaultRetryConfig()
	if cfg.RemoveRetries > 0 {
		retry.MaxRetries = cfg.RemoveRetries
	}
	if cfg.RemoveBackoff > 0 {
		retry.InitialBackoff = cfg.RemoveBackoff
	}
	if cfg.RemoveMaxBackoff > 0 {
		retry.MaxBackoff = cfg.RemoveMaxBackoff
	}

	return &fileStorage{
		log:   log,
		dir:   dir,
		retry: retry,
		sleep: time.Sleep,
	}, nil
}

func (f *fileStorage) Dir() string {
	return f.dir
}

func (f *fileStorage) Allocate(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(f.dir, fmt.Sprintf("%s_%s%s", sanitize(prefix), uuid.NewString(), sanitize(ext)))
}

func (f *fileStorage) Write(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return models.IOError("write scratch file", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return models.IOError("write scratch file", err)
	}

	if err := file.Close(); err != nil {
		return models.IOError("write scratch file", err)
	}

	return nil
}

func (f *fileStorage) WriteFrom(path string, r io.Reader) (int64, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, models.IOError("write scratch file", err)
	}

	n, err := io.Copy(file, r)
	if err != nil {
		file.Close()
		return n, models.IOError("write scratch file", err)
	}

	if err := file.Close(); err != nil {
		return n, models.IOError("write scratch file", err)
	}

	return n, nil
}

func (f *fileStorage) Remove(path string) {
	if path == "" {
		return
	}

	backoff := f.retry.InitialBackoff
	var err error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		err = os.Remove(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			if attempt > 0 {
				f.log.Info("Removed scratch file after retry", logger.String("path", path), logger.Int("attempt", attempt))
			}
			return
		}

		if attempt == f.retry.MaxRetries {
			break
		}

		f.log.Warn("Error while removing scratch file, retrying", logger.String("path", path), logger.Int("attempt", attempt+1), logger.Error(err))
		f.sleep(backoff)
		backoff *= 2
		if backoff > f.retry.MaxBackoff {
			backoff = f.retry.MaxBackoff
		}
	}

	metrics.ScratchRemoveFailures.Inc()
	f.log.Error("Giving up removing scratch file", logger.String("path", path), logger.Int("attempts", f.retry.MaxRetries+1), logger.Error(err))
}

func (f *fileStorage) RemoveAll(paths ...string) {
	for _, path := range paths {
		f.Remove(path)
	}
}

// sanitize keeps scratch names inside the scratch directory
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
