package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

// maxDiagnostics bounds engine stderr kept in errors and logs
const maxDiagnostics = 4096

type probeData struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	BitRate      string `json:"bit_rate,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	SampleRate   string `json:"sample_rate,omitempty"`
}

// Probe runs ffprobe against input and normalizes its output
func (f *FFmpeg) Probe(ctx context.Context, input string) (*models.VideoMetadata, error) {
	const op = "probe"
	f.log.Debug("Probing", logger.String("input", input))

	if _, err := os.Stat(input); err != nil {
		return nil, models.ProbeError(op, err, "")
	}

	if f.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.ProbeTimeout)
		defer cancel()
	}

	commands := videoInfo.ReplaceArguments([]Args{
		{
			Index: 6,
			Value: input,
		},
	})

	var stdout, stderr bytes.Buffer
	// #nosec G204 - binary comes from configuration, arguments are fixed apart from the scratch path
	cmd := exec.CommandContext(ctx, f.cfg.FFprobe, commands...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		diag := truncate(stderr.String(), maxDiagnostics)
		f.log.Error("ffprobe failed", logger.String("input", input), logger.Error(err), logger.String("stderr", diag))
		return nil, models.ProbeError(op, fmt.Errorf("ffprobe: %w", err), diag)
	}
	f.log.Debug("ffprobe finished", logger.String("input", input), logger.Duration("took", time.Since(start)))

	meta, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		f.log.Error("ffprobe output rejected", logger.String("input", input), logger.Error(err))
		return nil, models.ProbeError(op, err, truncate(stdout.String(), maxDiagnostics))
	}

	return meta, nil
}

func parseProbeOutput(out []byte) (*models.VideoMetadata, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("decode ffprobe json: %w", err)
	}

	if data.Format.FormatName == "" {
		return nil, errors.New("ffprobe returned no container format")
	}

	meta := &models.VideoMetadata{
		Format:   data.Format.FormatName,
		Duration: parseFloat(data.Format.Duration),
		Size:     parseInt(data.Format.Size),
		Bitrate:  parseInt(data.Format.BitRate),
	}

	for _, s := range data.Streams {
		if s.CodecName == "" {
			continue
		}
		switch s.CodecType {
		case "video":
			if meta.Video != nil {
				continue
			}
			meta.Video = &models.VideoStreamInfo{
				Codec:   s.CodecName,
				Width:   s.Width,
				Height:  s.Height,
				FPS:     frameRate(s),
				Bitrate: parseInt(s.BitRate),
			}
		case "audio":
			if meta.Audio != nil {
				continue
			}
			meta.Audio = &models.AudioStreamInfo{
				Codec:      s.CodecName,
				Channels:   s.Channels,
				SampleRate: int(parseInt(s.SampleRate)),
				Bitrate:    parseInt(s.BitRate),
			}
		}
	}

	if meta.Video == nil && meta.Audio == nil {
		return nil, errors.New("ffprobe found no decodable audio or video stream")
	}

	// Some containers (webm, mkv) carry no overall bit_rate
	if meta.Bitrate == 0 && meta.Duration > 0 && meta.Size > 0 {
		meta.Bitrate = int64(float64(meta.Size*8) / meta.Duration)
	}

	return meta, nil
}

func frameRate(s probeStream) float64 {
	for _, v := range []string{s.AvgFrameRate, s.RFrameRate} {
		if v == "" {
			continue
		}
		fps, err := transcoder.ParseRational(v)
		if err == nil && fps > 0 {
			return fps
		}
	}
	return 0
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
