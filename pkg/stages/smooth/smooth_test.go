package smooth

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviebarcode/pkg/adapters/logger"
	"github.com/user/moviebarcode/pkg/pipeline"
)

// striped builds a w x 3 image whose rows in column x are x, x+10, x+20
// in every channel, so the column mean is x+10.
func striped(w int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, 3))
	for x := 0; x < w; x++ {
		for y := 0; y < 3; y++ {
			v := uint8(x + 10*y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestExecute_ColumnsBecomeTheirMean(t *testing.T) {
	stage := NewStage(logger.NewNoop())
	src := striped(8)

	result, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: src})
	require.NoError(t, err)

	assert.Equal(t, src.Bounds().Size(), result.Image.Bounds().Size())
	for x := 0; x < 8; x++ {
		want := uint8(x + 10)
		for y := 0; y < 3; y++ {
			got := rgba(result.Image, result.Image.Bounds().Min.X+x, result.Image.Bounds().Min.Y+y)
			assert.Equal(t, color.RGBA{R: want, G: want, B: want, A: 255}, got, "pixel (%d,%d)", x, y)
		}
	}
}

func TestExecute_DoesNotMutateInput(t *testing.T) {
	stage := NewStage(logger.NewNoop())
	src := striped(5)
	before := append([]uint8(nil), src.Pix...)

	result, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: src, Sigma: 1.5})
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
	assert.NotSame(t, image.Image(src), result.Image)
}

func TestExecute_BlurSoftensEdges(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	src := image.NewRGBA(image.Rect(0, 0, 20, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 20; x++ {
			c := color.RGBA{A: 255}
			if x >= 10 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			src.SetRGBA(x, y, c)
		}
	}

	sharp, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: src})
	require.NoError(t, err)
	blurred, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: src, Sigma: 2})
	require.NoError(t, err)

	assert.Equal(t, src.Bounds().Size(), blurred.Image.Bounds().Size())
	assert.Equal(t, uint8(0), rgba(sharp.Image, 9, 0).R)
	assert.Greater(t, rgba(blurred.Image, 9, 0).R, uint8(0))
	assert.Less(t, rgba(blurred.Image, 10, 0).R, uint8(255))
	// Every column stays uniform.
	for x := 0; x < 20; x++ {
		assert.Equal(t, rgba(blurred.Image, x, 0), rgba(blurred.Image, x, 3))
	}
}

func TestExecute_SinglePixelColumn(t *testing.T) {
	stage := NewStage(logger.NewNoop())
	src := image.NewRGBA(image.Rect(0, 0, 1, 1080))

	result, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: src})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 1080), result.Image.Bounds().Size())
}

func TestExecute_EmptyImage(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.SmoothInput{Image: image.NewRGBA(image.Rect(0, 0, 0, 10))})
	assert.Error(t, err)

	_, err = stage.Execute(context.Background(), pipeline.SmoothInput{})
	assert.Error(t, err)
}

func TestExecute_Cancelled(t *testing.T) {
	stage := NewStage(logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stage.Execute(ctx, pipeline.SmoothInput{Image: striped(4)})
	assert.True(t, pipeline.IsCancelled(err))
}
