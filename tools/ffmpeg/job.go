package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

const (
	diagnosticLines = 50
	progressBuffer  = 16
)

// Ensure job implements transcoder.Job
var _ transcoder.Job = (*job)(nil)

type job struct {
	id      string
	command []string
	output  string
	format  transcoder.ContainerFormat
	log     logger.Logger

	cmd      *exec.Cmd
	progress chan transcoder.Progress
	done     chan struct{}
	ring     *ringBuffer

	mu    sync.Mutex
	state transcoder.State
	out   *transcoder.Output
	err   error
}

// Submit spawns one ffmpeg process transcoding input into output.
// A spawn failure is returned directly; every later failure is reported by Wait.
func (f *FFmpeg) Submit(ctx context.Context, input, output string, req models.TranscodeRequest) (transcoder.Job, error) {
	const op = "transcode"

	format, ok := transcoder.FindContainerFormat(req.Format)
	if !ok {
		return nil, models.InvalidRequestError(op, "unsupported format %q", req.Format)
	}

	j := &job{
		id:       uuid.NewString(),
		command:  makeTranscodeCommand(input, output, f.cfg.Preset, req, format),
		output:   output,
		format:   format,
		progress: make(chan transcoder.Progress, progressBuffer),
		done:     make(chan struct{}),
		ring:     newRingBuffer(diagnosticLines),
		state:    transcoder.StatePending,
	}
	j.log = f.log.With(logger.String("job_id", j.id))

	// #nosec G204 - binary comes from configuration, arguments are built from validated fields
	cmd := exec.CommandContext(ctx, f.cfg.FFmpeg, j.command...)
	cmd.WaitDelay = 5 * time.Second
	j.cmd = cmd

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, j.fail(models.TranscodeError(op, fmt.Errorf("pipe stderr: %w", err), ""))
	}

	if err := cmd.Start(); err != nil {
		j.log.Error("[-] TRANSCODE", logger.String("STATE", "SPAWN FAILED"), logger.Error(err))
		return nil, j.fail(models.TranscodeError(op, fmt.Errorf("start %s: %w", f.cfg.FFmpeg, err), ""))
	}

	j.setState(transcoder.StateRunning)
	j.log.Info("[+] TRANSCODE", logger.String("STATE", "START"), logger.String("command", f.cfg.FFmpeg+" "+strings.Join(j.command, " ")))

	go j.monitor(ctx, stderr)

	return j, nil
}

func (j *job) ID() string {
	return j.id
}

func (j *job) Command() []string {
	return append([]string(nil), j.command...)
}

func (j *job) State() transcoder.State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *job) Progress() <-chan transcoder.Progress {
	return j.progress
}

// Wait blocks until the engine exits. It may be called any number of times.
func (j *job) Wait() (*transcoder.Output, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out, j.err
}

func (j *job) setState(s transcoder.State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// fail marks a job that never started; it closes the channels the monitor would have closed
func (j *job) fail(err error) error {
	j.mu.Lock()
	j.state = transcoder.StateFailed
	j.err = err
	j.mu.Unlock()
	close(j.progress)
	close(j.done)
	return err
}

func (j *job) monitor(ctx context.Context, stderr io.Reader) {
	start := time.Now()
	tracker := &progressTracker{}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanEngineLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		percent, outTime, ok := tracker.observe(line)
		if !ok {
			j.ring.Add(line)
			continue
		}

		select {
		case j.progress <- transcoder.Progress{Percent: percent, OutTime: outTime}:
		default:
			// nobody is listening fast enough, the next update supersedes this one
		}
	}
	if err := scanner.Err(); err != nil {
		// keep draining so the engine never blocks on a full pipe
		_, _ = io.Copy(io.Discard, stderr)
	}

	waitErr := j.cmd.Wait()
	out, err := j.result(ctx, waitErr)

	j.mu.Lock()
	j.out, j.err = out, err
	if err != nil {
		j.state = transcoder.StateFailed
	} else {
		j.state = transcoder.StateSucceeded
	}
	j.mu.Unlock()

	if err != nil {
		j.log.Error("[-] TRANSCODE", logger.String("STATE", "FAILED"), logger.Duration("took", time.Since(start)), logger.Error(err), logger.String("stderr", j.ring.String()))
	} else {
		j.log.Info("[+] TRANSCODE", logger.String("STATE", "SUCCESS"), logger.Duration("took", time.Since(start)), logger.Int64("size", out.Size))
	}

	close(j.progress)
	close(j.done)
}

func (j *job) result(ctx context.Context, waitErr error) (*transcoder.Output, error) {
	const op = "transcode"

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			waitErr = fmt.Errorf("%w (%v)", ctxErr, waitErr)
		}
		return nil, models.TranscodeError(op, fmt.Errorf("ffmpeg: %w", waitErr), truncate(j.ring.String(), maxDiagnostics))
	}

	info, err := os.Stat(j.output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = errors.New("engine exited 0 but wrote no output")
		}
		return nil, models.TranscodeError(op, err, truncate(j.ring.String(), maxDiagnostics))
	}

	return &transcoder.Output{
		Path:   j.output,
		Format: j.format,
		Size:   info.Size(),
	}, nil
}
