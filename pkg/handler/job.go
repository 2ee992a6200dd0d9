package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/pkg/metrics"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

// progressStep is the smallest progress change worth publishing
const progressStep = 5.0

func (h *handlerObj) newStatus(r *http.Request, filename string) *models.JobStatus {
	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}

	return &models.JobStatus{
		Id:        id,
		Filename:  filename,
		ErrorCode: Success,
	}
}

// transcode runs one engine job to completion. The job is detached from the
// client connection and bounded by the transcode timeout instead.
func (h *handlerObj) transcode(r *http.Request, status *models.JobStatus, input, output string, req models.TranscodeRequest) (*transcoder.Output, error) {
	ctx := context.WithoutCancel(r.Context())
	if h.cfg.TranscodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.TranscodeTimeout)
		defer cancel()
	}

	status.Stage = h.cfg.Stages.Transcode
	status.Status = h.cfg.Status.Pending
	h.publish(status)

	start := time.Now()
	job, err := h.transcoder.Submit(ctx, input, output, req)
	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(transcoder.StateFailed)).Inc()
		h.fail(status, err)
		return nil, err
	}

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	status.Command = job.Command()
	status.Status = h.cfg.Status.Running
	h.publish(status)

	log := h.log.With(logger.String("request_id", status.Id), logger.String("job_id", job.ID()))

	last := -progressStep
	for p := range job.Progress() {
		if p.Percent-last < progressStep {
			continue
		}
		last = p.Percent
		status.Progress = p.Percent
		log.Debug("Transcode progress", logger.Float64("percent", p.Percent), logger.Duration("out_time", p.OutTime))
		h.publish(status)
	}

	out, err := job.Wait()
	elapsed := time.Since(start)
	status.TranscodeTime = int(elapsed.Milliseconds())
	metrics.JobDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(transcoder.StateFailed)).Inc()
		h.fail(status, err)
		return nil, err
	}

	metrics.JobsTotal.WithLabelValues(string(transcoder.StateSucceeded)).Inc()
	status.Status = h.cfg.Status.Success
	status.Progress = 100
	status.OutputSize = out.Size
	h.publish(status)

	return out, nil
}

func (h *handlerObj) fail(status *models.JobStatus, err error) {
	status.Status = h.cfg.Status.Fail
	status.ErrorCode = errorCode(err)
	status.FailDescription = err.Error()
	h.publish(status)
}

// publish sends a snapshot of status. Failures are logged and counted only.
func (h *handlerObj) publish(status *models.JobStatus) {
	if h.publisher == nil {
		return
	}

	snapshot := *status
	snapshot.Command = append([]string(nil), status.Command...)

	if err := h.publisher.PublishJobStatus(&snapshot); err != nil {
		metrics.StatusPublishFailures.Inc()
		h.log.Warn("Error while publishing job status",
			logger.String("request_id", status.Id),
			logger.String("stage", status.Stage),
			logger.String("status", status.Status),
			logger.Error(err),
		)
	}
}

func errorCode(err error) string {
	switch models.KindOf(err) {
	case models.KindUploadMissing, models.KindInvalidRequest:
		return InvalidRequest
	default:
		return InternalServerError
	}
}
