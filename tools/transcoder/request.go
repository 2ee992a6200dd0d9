package transcoder

import (
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/transcodeuz/video-compressor/models"
)

const (
	maxFPS       = 240
	maxDimension = 8192
)

var bitrateToken = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKmM]?$`)

// RequestParams are the raw, unvalidated compress form fields
type RequestParams struct {
	FPS        string
	Bitrate    string
	Width      string
	Height     string
	Format     string
	Resolution string
}

// Defaults applied to fields the caller left empty
type Defaults struct {
	FPS    int
	Format string
}

// NewRequest validates params into a TranscodeRequest. muxers is the engine
// snapshot taken at startup; when empty the engine is not consulted.
func NewRequest(p RequestParams, d Defaults, muxers []string) (models.TranscodeRequest, error) {
	const op = "validate request"

	req := models.TranscodeRequest{
		FPS:    d.FPS,
		Format: d.Format,
	}
	if req.FPS <= 0 {
		req.FPS = 30
	}
	if req.Format == "" {
		req.Format = "mp4"
	}

	if v := strings.TrimSpace(p.FPS); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil || fps <= 0 || fps > maxFPS {
			return req, models.InvalidRequestError(op, "fps must be an integer between 1 and %d, got %q", maxFPS, v)
		}
		req.FPS = fps
	}

	if v := strings.TrimSpace(p.Bitrate); v != "" {
		if !bitrateToken.MatchString(v) {
			return req, models.InvalidRequestError(op, "bitrate must look like 1000k or 2M, got %q", v)
		}
		req.Bitrate = v
	}

	width, height := strings.TrimSpace(p.Width), strings.TrimSpace(p.Height)
	switch {
	case width != "" && height == "":
		return req, models.InvalidRequestError(op, "width given without height")
	case width == "" && height != "":
		return req, models.InvalidRequestError(op, "height given without width")
	case width != "":
		w, err := parseDimension(width)
		if err != nil {
			return req, models.InvalidRequestError(op, "invalid width %q", width)
		}
		h, err := parseDimension(height)
		if err != nil {
			return req, models.InvalidRequestError(op, "invalid height %q", height)
		}
		req.Width, req.Height = w, h
	}

	if v := strings.TrimSpace(p.Resolution); v != "" {
		if req.HasResolution() {
			return req, models.InvalidRequestError(op, "resolution cannot be combined with width and height")
		}
		preset, ok := FindResolutionFormat(v)
		if !ok {
			return req, models.InvalidRequestError(op, "unknown resolution %q", v)
		}
		req.Width, req.Height = preset.GetMeasure()
	}

	if v := strings.TrimSpace(p.Format); v != "" {
		req.Format = strings.ToLower(v)
	}
	container, ok := FindContainerFormat(req.Format)
	if !ok {
		return req, models.InvalidRequestError(op, "unsupported format %q", req.Format)
	}
	if len(muxers) > 0 && !contains(muxers, container.Muxer) {
		return req, models.InvalidRequestError(op, "format %q is not available in the installed engine", req.Format)
	}
	req.Format = container.Name

	return req, nil
}

func parseDimension(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v > maxDimension {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
