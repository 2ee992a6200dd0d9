package ffmpeg

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeToSeconds(t *testing.T) {
	got, err := parseTimeToSeconds("01:02:03.50")
	require.NoError(t, err)
	assert.Equal(t, 3723.5, got)

	got, err = parseTimeToSeconds("02:03.5")
	require.NoError(t, err)
	assert.Equal(t, 123.5, got)

	for _, in := range []string{"N/A", "", "1:2:3:4", "aa:bb:cc"} {
		_, err := parseTimeToSeconds(in)
		assert.Error(t, err, in)
	}
}

func TestProgressTracker(t *testing.T) {
	p := &progressTracker{}

	_, _, ok := p.observe("Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':")
	assert.False(t, ok)

	_, _, ok = p.observe("  Duration: 00:00:20.00, start: 0.000000, bitrate: 1000 kb/s")
	assert.False(t, ok)
	assert.Equal(t, 20.0, p.duration)

	percent, outTime, ok := p.observe("frame=  120 fps=0.0 q=28.0 size=  256kB time=00:00:05.00 bitrate=419.4kbits/s")
	require.True(t, ok)
	assert.Equal(t, 25.0, percent)
	assert.Equal(t, 5*time.Second, outTime)

	// an output "Duration:" line must not reset the input duration
	p.observe("  Duration: 00:00:01.00, start: 0.000000")
	assert.Equal(t, 20.0, p.duration)

	percent, _, ok = p.observe("frame=  999 time=00:00:30.00 bitrate=N/A")
	require.True(t, ok)
	assert.Equal(t, 100.0, percent)
}

func TestProgressTrackerUnknownValues(t *testing.T) {
	p := &progressTracker{}

	percent, _, ok := p.observe("frame=    1 time=00:00:01.00 bitrate=N/A")
	require.True(t, ok)
	assert.Zero(t, percent, "no duration seen yet")

	p.observe("  Duration: N/A, start: 0.000000")
	assert.Zero(t, p.duration)

	percent, _, ok = p.observe("frame=    1 size=N/A time=N/A bitrate=N/A")
	require.True(t, ok)
	assert.Zero(t, percent)
}

func TestScanEngineLines(t *testing.T) {
	in := "first\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r\nlast"
	scanner := bufio.NewScanner(strings.NewReader(in))
	scanner.Split(scanEngineLines)

	var lines []string
	for scanner.Scan() {
		if scanner.Text() != "" {
			lines = append(lines, scanner.Text())
		}
	}

	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"first", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "last"}, lines)
}

func TestRingBuffer(t *testing.T) {
	r := newRingBuffer(3)
	r.Add("a")
	r.Add("b")
	assert.Equal(t, []string{"a", "b"}, r.GetAll())

	r.Add("c")
	r.Add("d")
	assert.Equal(t, []string{"b", "c", "d"}, r.GetAll())
	assert.Equal(t, "b\nc\nd", r.String())
}
