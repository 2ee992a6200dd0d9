package ffmpeg

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/video-compressor/models"
)

func TestParseProbeOutput(t *testing.T) {
	meta, err := parseProbeOutput([]byte(fakeProbeJSON))
	require.NoError(t, err)

	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", meta.Format)
	assert.InDelta(t, 10.01, meta.Duration, 1e-9)
	assert.EqualValues(t, 5800000, meta.Size)
	assert.EqualValues(t, 4635364, meta.Bitrate)

	require.NotNil(t, meta.Video)
	assert.Equal(t, "h264", meta.Video.Codec)
	assert.Equal(t, 1920, meta.Video.Width)
	assert.Equal(t, 1080, meta.Video.Height)
	assert.InDelta(t, 29.97, meta.Video.FPS, 0.001)
	assert.EqualValues(t, 4500000, meta.Video.Bitrate)

	require.NotNil(t, meta.Audio)
	assert.Equal(t, "aac", meta.Audio.Codec)
	assert.Equal(t, 2, meta.Audio.Channels)
	assert.Equal(t, 48000, meta.Audio.SampleRate)
	assert.EqualValues(t, 128000, meta.Audio.Bitrate)
}

func TestParseProbeOutputFallbacks(t *testing.T) {
	out := `{
	  "streams": [{"codec_type": "video", "codec_name": "vp9", "width": 640, "height": 360,
	               "avg_frame_rate": "0/0", "r_frame_rate": "25/1"}],
	  "format": {"format_name": "matroska,webm", "duration": "4.0", "size": "1000"}
	}`

	meta, err := parseProbeOutput([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 25.0, meta.Video.FPS)
	assert.EqualValues(t, 2000, meta.Bitrate)
	assert.Nil(t, meta.Audio)
}

func TestParseProbeOutputUnsafeRatio(t *testing.T) {
	out := `{
	  "streams": [{"codec_type": "video", "codec_name": "h264", "avg_frame_rate": "require('fs')"}],
	  "format": {"format_name": "mp4"}
	}`

	meta, err := parseProbeOutput([]byte(out))
	require.NoError(t, err)
	assert.Zero(t, meta.Video.FPS)
}

func TestParseProbeOutputRejects(t *testing.T) {
	for name, out := range map[string]string{
		"not json":     "Invalid data found",
		"empty object": "{}",
		"no streams":   `{"format": {"format_name": "mp4"}, "streams": []}`,
		"no codec":     `{"format": {"format_name": "mp4"}, "streams": [{"codec_type": "video"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(out))
			assert.Error(t, err)
		})
	}
}

func TestProbe(t *testing.T) {
	f, dir := newFakeEngine(t)
	input := writeInput(t, dir, "input.mp4")

	meta, err := f.Probe(context.Background(), input)
	require.NoError(t, err)
	assert.InDelta(t, 29.97, meta.FPS(), 0.001)
	assert.GreaterOrEqual(t, meta.Bitrate, int64(0))
}

func TestProbeErrors(t *testing.T) {
	f, dir := newFakeEngine(t)

	tests := map[string]string{
		"missing file":  filepath.Join(dir, "does-not-exist.mp4"),
		"engine failed": writeInput(t, dir, "broken.mp4"),
		"garbled":       writeInput(t, dir, "garbled.mp4"),
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.Probe(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, models.KindProbe, models.KindOf(err))
		})
	}
}

func TestProbeEngineDiagnostics(t *testing.T) {
	f, dir := newFakeEngine(t)

	_, err := f.Probe(context.Background(), writeInput(t, dir, "broken.mp4"))
	require.Error(t, err)
	assert.Contains(t, models.DetailsOf(err), "Invalid data found")
}
