package ffmpeg

import (
	"fmt"
	"strconv"

	"gitlab.com/transcodeuz/video-compressor/models"
	"gitlab.com/transcodeuz/video-compressor/tools/transcoder"
)

var baseCommand = Command{
	command: []string{
		"-y", "-hide_banner", "-nostdin", "-i", "input", "-c:v", "libx264", "-c:a", "aac", "-r", "30",
		//0    1               2            3     4        5       6          7       8      9      10
	},
}

var presetCommand = Command{
	command: []string{
		"-preset", "veryfast", "-strict", "experimental",
		//0         1           2          3
	},
}

// streamingFlags keep mp4/mov playable while they are read front to back
var streamingFlags = []string{"-movflags", "frag_keyframe+empty_moov"}

// makeTranscodeCommand builds the engine argument list. The result depends
// only on its inputs, so equal requests always produce equal commands.
func makeTranscodeCommand(input, output, preset string, req models.TranscodeRequest, format transcoder.ContainerFormat) []string {
	command := make([]string, 0, 32)

	fps := req.FPS
	if fps <= 0 {
		fps = 30
	}

	command = append(command, baseCommand.ReplaceArguments([]Args{
		{Index: 4, Value: input},
		{Index: 10, Value: strconv.Itoa(fps)},
	})...)

	if req.Bitrate != "" {
		command = append(command, "-b:v", req.Bitrate)
	}

	if req.HasResolution() {
		command = append(command, "-s", fmt.Sprintf("%dx%d", req.Width, req.Height))
	}

	if preset == "" {
		preset = "veryfast"
	}
	command = append(command, presetCommand.ReplaceArguments([]Args{
		{Index: 1, Value: preset},
	})...)

	if format.StreamingFlags {
		command = append(command, streamingFlags...)
	}

	command = append(command, "-f", format.Muxer, output)

	return command
}
