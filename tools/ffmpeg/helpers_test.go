package ffmpeg

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gitlab.com/transcodeuz/video-compressor/config"
	"gitlab.com/transcodeuz/video-compressor/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fakeProbeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30000/1001", "bit_rate": "4500000"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2,
     "sample_rate": "48000", "bit_rate": "128000"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "10.010000",
             "size": "5800000", "bit_rate": "4635364"}
}`

const fakeFFprobe = `#!/bin/sh
for last; do :; done
case "$(basename "$last")" in
  *garbled*) echo "this is not json"; exit 0 ;;
  *broken*) echo "Invalid data found when processing input" >&2; exit 1 ;;
esac
cat <<'JSON'
` + fakeProbeJSON + `
JSON
`

const fakeFFmpeg = `#!/bin/sh
if [ "$1" = "-hide_banner" ] && [ "$2" = "-muxers" ]; then
cat <<'TABLE'
File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E matroska        Matroska
  E mov             QuickTime / MOV
  E mp4             MP4 (MPEG-4 Part 14)
  E mpegts          MPEG-TS (MPEG-2 Transport Stream)
TABLE
exit 0
fi
in=""
prev=""
for a; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  last="$a"
done
echo "Input #0, mov,mp4,m4a,3gp,3g2,mj2, from '$in':" >&2
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 4635 kb/s" >&2
printf 'frame=  150 fps=0.0 q=28.0 size=     256kB time=00:00:05.00 bitrate= 419.4kbits/s speed=10x\r' >&2
case "$(basename "$in")" in
  *fail*) echo "Error while opening encoder for output stream #0:0" >&2; echo "Conversion failed!" >&2; exit 1 ;;
  *nooutput*) exit 0 ;;
  *slow*) exec sleep 5 ;;
esac
cp "$in" "$last"
printf 'frame=  300 fps=0.0 q=-1.0 Lsize=     512kB time=00:00:10.00 bitrate= 419.4kbits/s speed=10x\n' >&2
exit 0
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

// newFakeEngine returns an FFmpeg wired to shell scripts that imitate ffmpeg/ffprobe
func newFakeEngine(t *testing.T) (*FFmpeg, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts need a POSIX shell")
	}

	dir := t.TempDir()
	cfg := &config.Config{
		FFmpeg:           writeScript(t, dir, "ffmpeg", fakeFFmpeg),
		FFprobe:          writeScript(t, dir, "ffprobe", fakeFFprobe),
		Preset:           "veryfast",
		ProbeTimeout:     10 * time.Second,
		TranscodeTimeout: time.Minute,
	}

	return NewFFmpeg(cfg, logger.NewNop()).(*FFmpeg), dir
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake video payload"), 0o600))
	return path
}
