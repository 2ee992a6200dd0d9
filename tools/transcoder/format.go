package transcoder

import "strings"

// ContainerFormat is an output container the service can produce with libx264/aac
type ContainerFormat struct {
	Name      string
	Muxer     string
	Extension string
	// Fragmented mp4 flags make the output playable while it is still being read
	StreamingFlags bool
}

// ContentType is the value of the Content-Type header for this format
func (c ContainerFormat) ContentType() string {
	return "video/" + c.Name
}

var ContainerFormats = []ContainerFormat{
	{Name: "mp4", Muxer: "mp4", Extension: ".mp4", StreamingFlags: true},
	{Name: "mov", Muxer: "mov", Extension: ".mov", StreamingFlags: true},
	{Name: "mkv", Muxer: "matroska", Extension: ".mkv"},
	{Name: "avi", Muxer: "avi", Extension: ".avi"},
	{Name: "flv", Muxer: "flv", Extension: ".flv"},
	{Name: "ts", Muxer: "mpegts", Extension: ".ts"},
}

// FindContainerFormat looks a format up by its name or muxer name
func FindContainerFormat(name string) (ContainerFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range ContainerFormats {
		if f.Name == name || f.Muxer == name {
			return f, true
		}
	}
	return ContainerFormat{}, false
}
