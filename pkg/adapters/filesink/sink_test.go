package filesink

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviebarcode/pkg/adapters/ggrenderer"
	"github.com/user/moviebarcode/pkg/mocks"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug", "movie")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), ggrenderer.New())

	assert.True(t, sink.Enabled())
}

func TestSink_SavePlanJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	data := []byte(`{"bar_width": 1}`)
	require.NoError(t, sink.SavePlanJSON(data))

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "plan.json"))
	require.True(t, ok, "plan.json is saved in the base directory")
	assert.Equal(t, data, saved)
}

func TestSink_SaveFrameAndStrip(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	require.NoError(t, sink.SaveFrame(3, img))
	require.NoError(t, sink.SaveStrip(3, img))

	_, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "frame-0003.png"))
	assert.True(t, ok, "frame saved")
	_, ok = fs.GetFile(filepath.Join(testBaseDir, "strips", "strip-0003.png"))
	assert.True(t, ok, "strip saved")

	exists, _ := fs.Exists(filepath.Join(testBaseDir, "frames"))
	assert.True(t, exists, "frames directory created")
}
