package models

// UploadedVideo is a client upload after it has been spooled to a scratch file
type UploadedVideo struct {
	Path     string
	Filename string
	MimeType string
	Size     int64
}

// TranscodeRequest holds validated encoding parameters
type TranscodeRequest struct {
	FPS     int    `json:"fps"`
	Bitrate string `json:"bitrate,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Format  string `json:"format"`
}

// HasResolution reports whether a target resolution was requested
func (r TranscodeRequest) HasResolution() bool {
	return r.Width > 0 && r.Height > 0
}

type VideoMetadata struct {
	Format   string           `json:"format"`
	Duration float64          `json:"duration"`
	Size     int64            `json:"size"`
	Bitrate  int64            `json:"bitrate"`
	Video    *VideoStreamInfo `json:"video"`
	Audio    *AudioStreamInfo `json:"audio"`
}

type VideoStreamInfo struct {
	Codec   string  `json:"codec"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	FPS     float64 `json:"fps"`
	Bitrate int64   `json:"bitrate"`
}

type AudioStreamInfo struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	Bitrate    int64  `json:"bitrate"`
}

// FPS returns the frame rate of the video stream, 0 for audio-only files
func (m *VideoMetadata) FPS() float64 {
	if m == nil || m.Video == nil {
		return 0
	}
	return m.Video.FPS
}

// DetailsSummary is the narrow details payload kept for older clients
type DetailsSummary struct {
	Bitrate int64   `json:"bitrate"`
	FPS     float64 `json:"fps"`
}

// CompressComparison is returned by the comparison variant of compress
type CompressComparison struct {
	PrevBitrate   int64     `json:"prev_bitrate"`
	PrevFPS       float64   `json:"prev_fps"`
	RecentBitrate int64     `json:"recent_bitrate"`
	RecentFPS     float64   `json:"recent_fps"`
	Video         StreamRef `json:"video"`
}

// StreamRef describes the encoded output without embedding its bytes
type StreamRef struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type FormatsResponse struct {
	Formats []string `json:"formats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
