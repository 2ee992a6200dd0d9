package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/metrics"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

// maxClientDetails bounds the engine diagnostics echoed to clients
const maxClientDetails = 1024

func (h *handlerObj) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("Error while writing response",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
}

func (h *handlerObj) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	code := models.HTTPStatus(kind)

	resp := models.ErrorResponse{Error: clientMessage(kind, err)}
	if kind == models.KindTranscode {
		resp.Details = tail(models.DetailsOf(err), maxClientDetails)
	}

	fields := []logger.Field{
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.String("kind", string(kind)),
		logger.Int("code", code),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		h.log.Error("Request failed", append(fields, logger.String("details", models.DetailsOf(err)))...)
	} else {
		h.log.Info("Request rejected", fields...)
	}

	h.writeJSON(w, r, code, resp)
}

func clientMessage(kind models.ErrorKind, err error) string {
	switch kind {
	case models.KindUploadMissing:
		return "No file uploaded."
	case models.KindInvalidRequest:
		var e *models.Error
		if errors.As(err, &e) && e.Err != nil {
			return e.Err.Error()
		}
		return "Invalid request."
	case models.KindProbe:
		return "Error occurred while reading video details"
	case models.KindTranscode:
		return "Error occurred during compression"
	case models.KindIO:
		return "Error occurred while handling the video file"
	default:
		return "Internal server error"
	}
}

// sendVideo streams the encoded output as an attachment. Once the headers
// are out, failures can only be logged.
func (h *handlerObj) sendVideo(w http.ResponseWriter, r *http.Request, status *models.JobStatus, out *transcoder.Output, filename string) {
	f, err := out.Open()
	if err != nil {
		h.fail(status, err)
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	status.Stage = h.cfg.Stages.Send
	start := time.Now()

	w.Header().Set("Content-Type", out.Format.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(out.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachmentName(filename)))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	if err == nil && n != out.Size {
		err = fmt.Errorf("sent %d of %d bytes", n, out.Size)
	}
	if err == nil {
		if ferr := http.NewResponseController(w).Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
			err = ferr
		}
	}
	status.SendDuration = int(time.Since(start).Milliseconds())

	if err != nil {
		sendErr := models.NewError(models.KindSend, "send output", err)
		metrics.SendErrors.Inc()
		h.log.Error("Error while streaming output",
			logger.String("request_id", status.Id),
			logger.Int64("sent", n),
			logger.Int64("size", out.Size),
			logger.Error(sendErr),
		)
		h.fail(status, sendErr)
		return
	}

	status.Status = h.cfg.Status.Success
	h.publish(status)
}

// attachmentName is the download name of a compressed upload
func attachmentName(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "video"
	}

	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)

	return "compressed_" + name
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
