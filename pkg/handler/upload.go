package handler

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/metrics"
)

const (
	uploadField    = "video"
	sourceKeyField = "source_key"
	maxFormMemory  = 32 << 20
)

// receiveUpload spools the multipart "video" file, or the object named by
// source_key, into a fresh scratch input file. The caller owns the file.
func (h *handlerObj) receiveUpload(w http.ResponseWriter, r *http.Request) (*models.UploadedVideo, error) {
	const op = "receive upload"

	if h.cfg.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, models.InvalidRequestError(op, "upload exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, models.UploadMissingError(op)
		default:
			return nil, models.InvalidRequestError(op, "malformed multipart body: %v", err)
		}
	}
	// the server does this too, but handlers are also invoked directly
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return h.fetchSource(r)
	}
	if err != nil {
		return nil, models.InvalidRequestError(op, "read %q field: %v", uploadField, err)
	}
	defer file.Close()

	upload := &models.UploadedVideo{
		Path:     h.storage.Allocate("input", filepath.Ext(header.Filename)),
		Filename: filepath.Base(header.Filename),
		MimeType: header.Header.Get("Content-Type"),
	}

	upload.Size, err = h.storage.WriteFrom(upload.Path, file)
	if err != nil {
		h.storage.Remove(upload.Path)
		return nil, err
	}

	metrics.UploadBytes.Observe(float64(upload.Size))
	h.log.Debug("Upload received",
		logger.String("filename", upload.Filename),
		logger.String("mime_type", upload.MimeType),
		logger.Int64("size", upload.Size),
	)

	return upload, nil
}

func (h *handlerObj) fetchSource(r *http.Request) (*models.UploadedVideo, error) {
	const op = "receive upload"

	key := r.FormValue(sourceKeyField)
	if key == "" || h.source == nil {
		return nil, models.UploadMissingError(op)
	}

	upload := &models.UploadedVideo{
		Path:     h.storage.Allocate("input", path.Ext(key)),
		Filename: path.Base(key),
	}

	size, err := h.source.Fetch(r.Context(), key, upload.Path, h.cfg.MaxUploadSize)
	if err != nil {
		h.storage.Remove(upload.Path)
		return nil, err
	}
	upload.Size = size

	metrics.UploadBytes.Observe(float64(size))
	h.log.Debug("Source object fetched",
		logger.String("source", h.source.Name()),
		logger.String("key", key),
		logger.Int64("size", size),
	)

	return upload, nil
}
