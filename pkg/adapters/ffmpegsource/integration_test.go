package ffmpegsource

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestVideo renders a 2 second 64x48 test pattern at 10 fps.
func makeTestVideo(t *testing.T) string {
	t.Helper()
	if !IsAvailable() {
		t.Skip("ffmpeg/ffprobe not available")
	}
	ffmpeg, _ := FindFFmpeg("")

	path := filepath.Join(t.TempDir(), "pattern.mkv")
	cmd := exec.Command(ffmpeg, "-v", "error", "-f", "lavfi",
		"-i", "testsrc=size=64x48:rate=10:duration=2",
		"-c:v", "ffv1", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot render test video: %v\n%s", err, out)
	}
	return path
}

func TestIntegration_ProbeAndSample(t *testing.T) {
	path := makeTestVideo(t)
	s := New(Options{}, nil)
	ctx := context.Background()

	meta, err := s.Probe(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 64, meta.Width)
	assert.Equal(t, 48, meta.Height)
	assert.InDelta(t, 2*time.Second, meta.Duration, float64(100*time.Millisecond))

	fs, err := s.Sample(ctx, path, 20)
	require.NoError(t, err)
	defer fs.Close()

	for i := 0; i < 20; i++ {
		frame, err := fs.Next(ctx)
		require.NoError(t, err, "frame %d", i)
		require.Equal(t, 64, frame.Image.Bounds().Dx())
		require.Equal(t, 48, frame.Image.Bounds().Dy())
	}
	_, err = fs.Next(ctx)
	assert.Equal(t, io.EOF, err)
}
