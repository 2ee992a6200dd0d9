package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

// Formats lists the muxers of the configured ffmpeg binary
func (f *FFmpeg) Formats(ctx context.Context) ([]string, error) {
	var stdout, stderr bytes.Buffer
	// #nosec G204
	cmd := exec.CommandContext(ctx, f.cfg.FFmpeg, muxers.ReplaceArguments(nil)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.log.Error("Error while listing muxers", logger.Error(err), logger.String("stderr", truncate(stderr.String(), maxDiagnostics)))
		return nil, fmt.Errorf("ffmpeg -muxers: %w", err)
	}

	formats := parseMuxers(stdout.String())
	if len(formats) == 0 {
		return nil, fmt.Errorf("ffmpeg -muxers: no formats listed")
	}

	f.log.Info("Engine formats loaded", logger.Int("count", len(formats)))
	return formats, nil
}

// parseMuxers reads the table printed by `ffmpeg -muxers` / `ffmpeg -formats`:
//
//	 --
//	  E matroska        Matroska
//	 DE mov,mp4,m4a,... QuickTime / MOV
func parseMuxers(out string) []string {
	seen := make(map[string]struct{})
	var formats []string

	inTable := false
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			inTable = line == "--"
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "E") {
			continue
		}

		for _, name := range strings.Split(fields[1], ",") {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			formats = append(formats, name)
		}
	}

	sort.Strings(formats)
	return formats
}
