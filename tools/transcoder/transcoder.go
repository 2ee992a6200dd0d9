package transcoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gitlab.com/transcodeuz/video-compressor/models"
)

// Transcoder is methods that transcoder must have
type Transcoder interface {
	// Probe inspects a media file and returns its normalized metadata
	Probe(ctx context.Context, input string) (*models.VideoMetadata, error)
	// Submit starts one engine process re-encoding input into output
	Submit(ctx context.Context, input, output string, req models.TranscodeRequest) (Job, error)
	// Formats lists the muxers the engine can write
	Formats(ctx context.Context) ([]string, error)
}

// State of a transcode job
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Progress is a best-effort progress notification
type Progress struct {
	Percent float64
	OutTime time.Duration
}

// Job is a single engine invocation. Progress is closed before Wait returns.
type Job interface {
	ID() string
	State() State
	Command() []string
	Progress() <-chan Progress
	Wait() (*Output, error)
}

// Output is the finished scratch output of a succeeded job
type Output struct {
	Path   string
	Format ContainerFormat
	Size   int64
}

// Open returns a lazily read stream over the output file
func (o *Output) Open() (*os.File, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, models.IOError("open output", err)
	}
	return f, nil
}

// ReadAll loads the whole output file into memory
func (o *Output) ReadAll() ([]byte, error) {
	f, err := o.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.IOError("read output", err)
	}
	if int64(len(data)) != o.Size {
		return nil, models.IOError("read output", fmt.Errorf("read %d bytes, expected %d", len(data), o.Size))
	}
	return data, nil
}
