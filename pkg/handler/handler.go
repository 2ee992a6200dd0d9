package handler

import (
	"net/http"
	"time"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/metrics"
	"gitlab.com/transcodeuz/video-compressor/tools/storage"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

// StatusPublisher receives every job status transition
type StatusPublisher interface {
	PublishJobStatus(req *models.JobStatus) error
}

// Options ...
type Options struct {
	Config     *config.Config
	Log        logger.Logger
	Storage    storage.FileOperationsI
	Source     storage.SourceI // optional, enables source_key uploads
	Transcoder transcoder.Transcoder
	Publisher  StatusPublisher // optional
	Formats    []string        // muxer snapshot taken at startup
}

// MainI - interface containing the HTTP handlers
type MainI interface {
	Details(w http.ResponseWriter, r *http.Request)
	DetailsSummary(w http.ResponseWriter, r *http.Request)
	Compress(w http.ResponseWriter, r *http.Request)
	CompressCompare(w http.ResponseWriter, r *http.Request)
	Formats(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type handlerObj struct {
	cfg        *config.Config
	log        logger.Logger
	storage    storage.FileOperationsI
	source     storage.SourceI
	transcoder transcoder.Transcoder
	publisher  StatusPublisher
	formats    []string
}

// NewHandler - returns the handler object
func NewHandler(args Options) MainI {
	formats := make([]string, len(args.Formats))
	copy(formats, args.Formats)

	return &handlerObj{
		cfg:        args.Config,
		log:        args.Log,
		storage:    args.Storage,
		source:     args.Source,
		transcoder: args.Transcoder,
		publisher:  args.Publisher,
		formats:    formats,
	}
}

// Details probes the upload and returns its full metadata
func (h *handlerObj) Details(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer h.storage.Remove(upload.Path)

	md, err := h.probe(r, nil, upload.Path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, md)
}

// DetailsSummary is the bitrate and frame rate subset of Details
func (h *handlerObj) DetailsSummary(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer h.storage.Remove(upload.Path)

	md, err := h.probe(r, nil, upload.Path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, models.DetailsSummary{
		Bitrate: md.Bitrate,
		FPS:     md.FPS(),
	})
}

// Compress re-encodes the upload and streams the result back as an attachment
func (h *handlerObj) Compress(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer h.storage.Remove(upload.Path)

	req, err := h.transcodeRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := h.newStatus(r, upload.Filename)
	output := h.allocateOutput(req)
	defer h.storage.Remove(output)

	out, err := h.transcode(r, status, upload.Path, output, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendVideo(w, r, status, out, upload.Filename)
}

// CompressCompare re-encodes the upload and reports bitrate and frame rate
// before and after, with a reference to the encoded output.
func (h *handlerObj) CompressCompare(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer h.storage.Remove(upload.Path)

	req, err := h.transcodeRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := h.newStatus(r, upload.Filename)

	prev, err := h.probe(r, status, upload.Path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	output := h.allocateOutput(req)
	defer h.storage.Remove(output)

	out, err := h.transcode(r, status, upload.Path, output, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recent, err := h.probe(r, status, out.Path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	start := time.Now()
	h.writeJSON(w, r, http.StatusOK, models.CompressComparison{
		PrevBitrate:   prev.Bitrate,
		PrevFPS:       prev.FPS(),
		RecentBitrate: recent.Bitrate,
		RecentFPS:     recent.FPS(),
		Video: models.StreamRef{
			Name:        attachmentName(upload.Filename),
			ContentType: out.Format.ContentType(),
			Size:        out.Size,
		},
	})

	status.Stage = h.cfg.Stages.Send
	status.Status = h.cfg.Status.Success
	status.SendDuration = int(time.Since(start).Milliseconds())
	h.publish(status)
}

// Formats returns the muxer snapshot taken at startup
func (h *handlerObj) Formats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, models.FormatsResponse{Formats: h.formats})
}

func (h *handlerObj) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlerObj) transcodeRequest(r *http.Request) (models.TranscodeRequest, error) {
	return transcoder.NewRequest(transcoder.RequestParams{
		FPS:        r.FormValue("fps"),
		Bitrate:    r.FormValue("bitrate"),
		Width:      r.FormValue("width"),
		Height:     r.FormValue("height"),
		Format:     r.FormValue("format"),
		Resolution: r.FormValue("resolution"),
	}, transcoder.Defaults{
		FPS:    h.cfg.DefaultFPS,
		Format: h.cfg.DefaultFormat,
	}, h.formats)
}

func (h *handlerObj) allocateOutput(req models.TranscodeRequest) string {
	ext := req.Format
	if format, ok := transcoder.FindContainerFormat(req.Format); ok {
		ext = format.Extension
	}
	return h.storage.Allocate("output", ext)
}

func (h *handlerObj) probe(r *http.Request, status *models.JobStatus, path string) (*models.VideoMetadata, error) {
	start := time.Now()
	md, err := h.transcoder.Probe(r.Context(), path)
	if status != nil {
		status.ProbeDuration += int(time.Since(start).Milliseconds())
	}
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		if status != nil {
			status.Stage = h.cfg.Stages.Probe
			h.fail(status, err)
		}
		return nil, err
	}

	metrics.ProbesTotal.WithLabelValues("ok").Inc()
	return md, nil
}
