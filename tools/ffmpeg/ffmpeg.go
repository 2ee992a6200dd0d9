package ffmpeg

import (
	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

// FFmpeg is structure for a tool to convert video
type FFmpeg struct {
	cfg *config.Config
	log logger.Logger
}

// NewFFmpeg returns the pointer for ffmpeg structure
func NewFFmpeg(cfg *config.Config, log logger.Logger) transcoder.Transcoder {
	return &FFmpeg{
		cfg: cfg,
		log: log,
	}
}

// Command is an engine argument template
type Command struct {
	command []string
}

// Args is the argument to replace ffmpeg command list
type Args struct {
	Index int
	Value string
}

// ReplaceArguments - returns a copy of the template with the given arguments placed at their indexes.
// Templates are shared between requests and are never modified.
func (f *Command) ReplaceArguments(args []Args) []string {
	command := make([]string, len(f.command))
	copy(command, f.command)

	for _, arg := range args {
		command[arg.Index] = arg.Value
	}

	return command
}

var videoInfo = Command{
	command: []string{
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", "input",
		// 0    1         2                3        4               5               6
	},
}

var muxers = Command{
	command: []string{
		"-hide_banner", "-muxers",
	},
}
