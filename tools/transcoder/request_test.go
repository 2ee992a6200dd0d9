package transcoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/video-compressor/models"
)

var defaults = Defaults{FPS: 30, Format: "mp4"}

func TestNewRequestDefaults(t *testing.T) {
	req, err := NewRequest(RequestParams{}, defaults, nil)
	require.NoError(t, err)

	assert.Equal(t, models.TranscodeRequest{FPS: 30, Format: "mp4"}, req)
	assert.False(t, req.HasResolution())
}

func TestNewRequestZeroDefaults(t *testing.T) {
	req, err := NewRequest(RequestParams{}, Defaults{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, req.FPS)
	assert.Equal(t, "mp4", req.Format)
}

func TestNewRequestAllFields(t *testing.T) {
	req, err := NewRequest(RequestParams{
		FPS:     "24",
		Bitrate: "1000k",
		Width:   "1280",
		Height:  "720",
		Format:  "MKV",
	}, defaults, []string{"mp4", "matroska"})
	require.NoError(t, err)

	assert.Equal(t, models.TranscodeRequest{FPS: 24, Bitrate: "1000k", Width: 1280, Height: 720, Format: "mkv"}, req)
	assert.True(t, req.HasResolution())
}

func TestNewRequestResolutionPreset(t *testing.T) {
	req, err := NewRequest(RequestParams{Resolution: "720p"}, defaults, nil)
	require.NoError(t, err)
	assert.Equal(t, 1280, req.Width)
	assert.Equal(t, 720, req.Height)
}

func TestNewRequestRejects(t *testing.T) {
	tests := []struct {
		name   string
		params RequestParams
		muxers []string
	}{
		{"width without height", RequestParams{Width: "640"}, nil},
		{"height without width", RequestParams{Height: "480"}, nil},
		{"negative width", RequestParams{Width: "-640", Height: "480"}, nil},
		{"huge height", RequestParams{Width: "640", Height: "100000"}, nil},
		{"non numeric fps", RequestParams{FPS: "thirty"}, nil},
		{"zero fps", RequestParams{FPS: "0"}, nil},
		{"fps ratio", RequestParams{FPS: "30000/1001"}, nil},
		{"bitrate garbage", RequestParams{Bitrate: "1000k; rm -rf /"}, nil},
		{"bitrate unit only", RequestParams{Bitrate: "k"}, nil},
		{"unknown format", RequestParams{Format: "gif"}, nil},
		{"format missing from engine", RequestParams{Format: "flv"}, []string{"mp4"}},
		{"unknown resolution", RequestParams{Resolution: "8k"}, nil},
		{"resolution and dimensions", RequestParams{Resolution: "720p", Width: "640", Height: "360"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.params, defaults, tt.muxers)
			require.Error(t, err)
			assert.Equal(t, models.KindInvalidRequest, models.KindOf(err))
		})
	}
}

func TestFindContainerFormat(t *testing.T) {
	f, ok := FindContainerFormat("matroska")
	require.True(t, ok)
	assert.Equal(t, "mkv", f.Name)
	assert.Equal(t, "video/mkv", f.ContentType())

	f, ok = FindContainerFormat(" MP4 ")
	require.True(t, ok)
	assert.True(t, f.StreamingFlags)

	_, ok = FindContainerFormat("webm")
	assert.False(t, ok)
}

func TestResolutionMeasure(t *testing.T) {
	for _, r := range Resolutions {
		w, h := r.GetMeasure()
		assert.Positive(t, w, r.Resolution)
		assert.Positive(t, h, r.Resolution)
	}

	broken := ResolutionFormat{Measure: "bogus"}
	w, h := broken.GetMeasure()
	assert.Equal(t, -1, w)
	assert.Equal(t, -1, h)
}
