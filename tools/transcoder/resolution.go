package transcoder

import (
	"strconv"
	"strings"
)

const (

	// Resolution4K - 3840x2160
	Resolution4K = "4k"
	// ResolutionFullHD - 1920x1080
	ResolutionFullHD = "1080p"
	// ResolutionHD - 1280x720
	ResolutionHD = "720p"
	// ResolutionSD - 854x480
	ResolutionSD = "480p"
	// ResolutionLD - 640x360
	ResolutionLD = "360p"
	// ResolutionVLD - 426x240
	ResolutionVLD = "240p"
)

// ResolutionFormat is a named resolution preset
type ResolutionFormat struct {
	Resolution string
	Measure    string
}

// Resolutions - presets accepted in the resolution field, smallest first
var Resolutions = []ResolutionFormat{
	{Resolution: ResolutionVLD, Measure: "426x240"},
	{Resolution: ResolutionLD, Measure: "640x360"},
	{Resolution: ResolutionSD, Measure: "854x480"},
	{Resolution: ResolutionHD, Measure: "1280x720"},
	{Resolution: ResolutionFullHD, Measure: "1920x1080"},
	{Resolution: Resolution4K, Measure: "3840x2160"},
}

// GetMeasure - returns the width and height of the wxb
func (r *ResolutionFormat) GetMeasure() (int, int) {
	list := strings.Split(r.Measure, "x")
	if len(list) > 1 {
		width, _ := strconv.Atoi(list[0])
		height, _ := strconv.Atoi(list[1])
		return width, height
	}
	return -1, -1
}

// FindResolutionFormat returns the preset with the given name, e.g. "720p"
func FindResolutionFormat(name string) (ResolutionFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range Resolutions {
		if r.Resolution == name {
			return r, true
		}
	}
	return ResolutionFormat{}, false
}
