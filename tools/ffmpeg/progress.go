package ffmpeg

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTimeToSeconds parses ffmpeg clock values such as "00:01:02.50" or "01:02.5"
func parseTimeToSeconds(clock string) (float64, error) {
	parts := strings.Split(clock, ":")
	if len(parts) == 3 {

		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		seconds, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, err
		}

		return float64(hours*3600+minutes*60) + seconds, nil
	} else if len(parts) == 2 {
		minutes, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, err
		}

		return float64(minutes*60) + seconds, nil
	}
	return 0, fmt.Errorf("invalid time format: %s", clock)
}

// clockValue extracts the clock after key, e.g. "time=" in
// "frame=  48 fps=0.0 q=28.0 size=  256kB time=00:00:01.92 bitrate=..."
func clockValue(line, key string) (float64, bool) {
	i := strings.Index(line, key)
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[i+len(key):])
	if end := strings.IndexAny(rest, " ,\t"); end >= 0 {
		rest = rest[:end]
	}
	seconds, err := parseTimeToSeconds(rest)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// progressTracker turns engine stderr lines into completion percentages
type progressTracker struct {
	duration float64
}

// observe returns the progress reported by line, if any. Missing or
// unparsable values report 0 percent rather than failing.
func (p *progressTracker) observe(line string) (percent float64, outTime time.Duration, ok bool) {
	if p.duration == 0 && strings.Contains(line, "Duration:") {
		if d, found := clockValue(line, "Duration:"); found {
			p.duration = d
		}
		return 0, 0, false
	}

	if !strings.Contains(line, "time=") {
		return 0, 0, false
	}

	seconds, found := clockValue(line, "time=")
	if !found {
		return 0, 0, true
	}
	outTime = time.Duration(seconds * float64(time.Second))
	if p.duration <= 0 {
		return 0, outTime, true
	}

	percent = seconds / p.duration * 100
	if percent > 100 {
		percent = 100
	}
	return percent, outTime, true
}

// scanEngineLines splits on '\n' and on the '\r' ffmpeg uses to redraw its stats line
func scanEngineLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimRight(data[:i], "\r\n"), nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
