package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/tools/storage"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

var testMuxers = []string{"avi", "flv", "matroska", "mov", "mp4", "mpegts"}

// fakeTranscoder stands in for the engine. Submit writes encoded bytes to
// the output path unless submitErr or waitErr is set.
type fakeTranscoder struct {
	mu sync.Mutex

	probeResult map[string]*models.VideoMetadata // keyed by "input" or "output" scratch prefix
	probeErr    error
	submitErr   error
	waitErr     error
	encoded     []byte
	progress    []float64

	probes   []string
	inputs   []string
	outputs  []string
	requests []models.TranscodeRequest
}

func (f *fakeTranscoder) Probe(_ context.Context, input string) (*models.VideoMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probes = append(f.probes, input)
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	if _, err := os.Stat(input); err != nil {
		return nil, models.ProbeError("probe", err, "")
	}

	for prefix, md := range f.probeResult {
		if strings.HasPrefix(filepath.Base(input), prefix+"_") {
			return md, nil
		}
	}
	return &models.VideoMetadata{Format: "mov,mp4,m4a,3gp,3g2,mj2"}, nil
}

func (f *fakeTranscoder) Submit(_ context.Context, input, output string, req models.TranscodeRequest) (transcoder.Job, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.outputs = append(f.outputs, output)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.submitErr != nil {
		return nil, f.submitErr
	}

	j := &fakeJob{
		progress: make(chan transcoder.Progress, len(f.progress)),
		err:      f.waitErr,
	}
	for _, p := range f.progress {
		j.progress <- transcoder.Progress{Percent: p}
	}
	close(j.progress)

	if f.waitErr == nil {
		if err := os.WriteFile(output, f.encoded, 0o600); err != nil {
			return nil, err
		}
		format, _ := transcoder.FindContainerFormat(req.Format)
		j.out = &transcoder.Output{Path: output, Format: format, Size: int64(len(f.encoded))}
	}

	return j, nil
}

func (f *fakeTranscoder) Formats(context.Context) ([]string, error) {
	return testMuxers, nil
}

func (f *fakeTranscoder) submits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeJob struct {
	progress chan transcoder.Progress
	out      *transcoder.Output
	err      error
}

func (j *fakeJob) ID() string { return "fake-job" }

func (j *fakeJob) Command() []string { return []string{"-i", "input"} }

func (j *fakeJob) Progress() <-chan transcoder.Progress { return j.progress }

func (j *fakeJob) Wait() (*transcoder.Output, error) { return j.out, j.err }

func (j *fakeJob) State() transcoder.State {
	if j.err != nil {
		return transcoder.StateFailed
	}
	return transcoder.StateSucceeded
}

type fakePublisher struct {
	mu       sync.Mutex
	statuses []models.JobStatus
	err      error
}

func (p *fakePublisher) PublishJobStatus(req *models.JobStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, *req)
	return p.err
}

func (p *fakePublisher) all() []models.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.JobStatus(nil), p.statuses...)
}

// fakeSource serves objects from memory
type fakeSource struct {
	objects map[string][]byte
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Fetch(_ context.Context, key, dst string, maxSize int64) (int64, error) {
	data, ok := s.objects[key]
	if !ok {
		return 0, models.InvalidRequestError("fetch source", "object %q not found", key)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return 0, models.InvalidRequestError("fetch source", "object too large")
	}
	return int64(len(data)), os.WriteFile(dst, data, 0o600)
}

type testServer struct {
	router    http.Handler
	dir       string
	engine    *fakeTranscoder
	publisher *fakePublisher
}

type serverOption func(*Options)

func withSource(src storage.SourceI) serverOption {
	return func(o *Options) { o.Source = src }
}

func withFormats(formats []string) serverOption {
	return func(o *Options) { o.Formats = formats }
}

func newTestServer(t *testing.T, engine *fakeTranscoder, opts ...serverOption) *testServer {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		TempFolderPath:   dir,
		MaxUploadSize:    1 << 20,
		RemoveRetries:    1,
		RemoveBackoff:    time.Millisecond,
		TranscodeTimeout: time.Minute,
		DefaultFPS:       30,
		DefaultFormat:    "mp4",
	}
	cfg.Stages.Probe = "probe"
	cfg.Stages.Transcode = "transcode"
	cfg.Stages.Send = "send"
	cfg.Status.Pending = "pending"
	cfg.Status.Running = "running"
	cfg.Status.Success = "success"
	cfg.Status.Fail = "fail"

	log := logger.NewNop()
	files, err := storage.NewFileStorage(cfg, log)
	require.NoError(t, err)

	publisher := &fakePublisher{}
	options := Options{
		Config:     cfg,
		Log:        log,
		Storage:    files,
		Transcoder: engine,
		Publisher:  publisher,
		Formats:    testMuxers,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &testServer{
		router:    NewRouter(NewHandler(options), cfg, log),
		dir:       dir,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// requireScratchEmpty asserts that no scratch file outlived the request
func (s *testServer) requireScratchEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Empty(t, names)
}

type uploadFile struct {
	filename string
	data     []byte
}

func newUploadRequest(t *testing.T, target string, file *uploadFile, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile(uploadField, file.filename)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func clip() *uploadFile {
	return &uploadFile{filename: "clip.mp4", data: []byte("not really a video")}
}

// brokenWriter fails every body write, like a client that went away
type brokenWriter struct {
	header http.Header
	code   int
}

func (w *brokenWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenWriter) WriteHeader(code int) { w.code = code }

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

var _ io.Writer = (*brokenWriter)(nil)
