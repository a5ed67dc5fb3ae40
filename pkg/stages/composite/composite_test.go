package composite

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviebarcode/pkg/adapters/ggrenderer"
	"github.com/user/moviebarcode/pkg/adapters/logger"
	"github.com/user/moviebarcode/pkg/mocks"
	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

func newStage(sink ports.DebugSink) *Stage {
	if sink == nil {
		sink = &mocks.NullSink{}
	}
	return NewStage(ggrenderer.New(), sink, logger.NewNoop())
}

func plan(width, height, bar int) pipeline.GenerationPlan {
	return pipeline.GenerationPlan{
		InputPath:    "movie.mkv",
		OutputPath:   "movie.png",
		BarWidth:     bar,
		OutputWidth:  width,
		OutputHeight: height,
		Mode:         pipeline.ModeResize,
	}
}

// stripColor gives each sample a distinct color.
func stripColor(i int) color.RGBA {
	return color.RGBA{R: uint8(i * 20), G: uint8(255 - i*20), B: uint8(i * 7), A: 255}
}

func solidStream(count, w, h int) *mocks.FrameStream {
	return mocks.NewFrameStream(count, func(i int) (ports.Frame, error) {
		return mocks.SolidFrame(i, count, w, h, stripColor(i)), nil
	})
}

func TestExecute_StripsCoverExactColumns(t *testing.T) {
	stage := newStage(nil)
	p := plan(30, 5, 3)

	result, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   p,
		Frames: solidStream(10, 16, 9),
	})
	require.NoError(t, err)
	require.Equal(t, 10, result.Strips)

	img := result.Image
	assert.Equal(t, image.Rect(0, 0, 30, 5), img.Bounds())

	for x := 0; x < 30; x++ {
		want := stripColor(x / 3)
		for y := 0; y < 5; y++ {
			got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			require.Equal(t, want, got, "pixel (%d,%d) belongs to strip %d", x, y, x/3)
		}
	}
}

func TestExecute_HundredByThousandEighty(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(100, func(i int) (ports.Frame, error) {
		return mocks.SolidFrame(i, 100, 64, 36, mocks.IndexColor(i)), nil
	})

	result, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(100, 1080, 1),
		Frames: stream,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.Image.Bounds().Dx())
	assert.Equal(t, 1080, result.Image.Bounds().Dy())
	for _, x := range []int{0, 1, 50, 99} {
		got := color.RGBAModel.Convert(result.Image.At(x, 540)).(color.RGBA)
		assert.Equal(t, mocks.IndexColor(x), got, "column %d", x)
	}
	assert.Equal(t, 100, stream.Yielded())
}

func TestExecute_ProgressIsReportedInOrder(t *testing.T) {
	stage := newStage(nil)

	var calls [][2]int
	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(8, 2, 1),
		Frames: solidStream(8, 4, 4),
		Progress: func(current, total int) {
			calls = append(calls, [2]int{current, total})
		},
	})
	require.NoError(t, err)

	require.Len(t, calls, 8)
	for i, c := range calls {
		assert.Equal(t, [2]int{i, 8}, c)
	}
}

func TestExecute_AverageMode(t *testing.T) {
	stage := newStage(nil)
	p := plan(4, 6, 2)
	p.Mode = pipeline.ModeAverage

	// Left half red, right half blue.
	stream := mocks.NewFrameStream(2, func(i int) (ports.Frame, error) {
		img := image.NewRGBA(image.Rect(0, 0, 4, 3))
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				if x < 2 {
					img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
				} else {
					img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
				}
			}
		}
		return ports.Frame{Index: i, Image: img}, nil
	})

	result, err := stage.Execute(context.Background(), pipeline.CompositeInput{Plan: p, Frames: stream})
	require.NoError(t, err)

	got := color.RGBAModel.Convert(result.Image.At(1, 3)).(color.RGBA)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.InDelta(t, 0, int(got.G), 1)
	assert.InDelta(t, 128, int(got.B), 1)
	assert.Equal(t, uint8(255), got.A)
}

func TestExecute_Deterministic(t *testing.T) {
	p := plan(20, 7, 2)
	p.Mode = pipeline.ModeAverage

	gen := func(i int) (ports.Frame, error) {
		img := image.NewRGBA(image.Rect(0, 0, 13, 11))
		for k := range img.Pix {
			img.Pix[k] = uint8((k*31 + i*17) % 256)
		}
		return ports.Frame{Index: i, Image: img}, nil
	}

	first, err := newStage(nil).Execute(context.Background(), pipeline.CompositeInput{Plan: p, Frames: mocks.NewFrameStream(10, gen)})
	require.NoError(t, err)
	second, err := newStage(nil).Execute(context.Background(), pipeline.CompositeInput{Plan: p, Frames: mocks.NewFrameStream(10, gen)})
	require.NoError(t, err)

	assert.Equal(t, first.Image.(*image.RGBA).Pix, second.Image.(*image.RGBA).Pix)
}

func TestExecute_CancelMidway(t *testing.T) {
	stage := newStage(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := solidStream(10, 4, 4)
	result, err := stage.Execute(ctx, pipeline.CompositeInput{
		Plan:   plan(10, 4, 1),
		Frames: stream,
		Progress: func(current, total int) {
			if current == 4 {
				cancel()
			}
		},
	})

	require.Error(t, err)
	assert.True(t, pipeline.IsCancelled(err), "got %v", err)
	assert.False(t, errors.Is(err, pipeline.ErrDecoderFailure))
	assert.Nil(t, result.Image, "a cancelled composition yields no image")
	assert.Equal(t, 5, stream.Yielded(), "no frame is pulled after cancellation")
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	stage := newStage(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := solidStream(10, 4, 4)
	_, err := stage.Execute(ctx, pipeline.CompositeInput{Plan: plan(10, 4, 1), Frames: stream})

	assert.True(t, pipeline.IsCancelled(err))
	assert.Zero(t, stream.Yielded())
}

func TestExecute_DecoderFailsAtFrameForty(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(100, func(i int) (ports.Frame, error) {
		if i == 40 {
			return ports.Frame{}, &pipeline.DecoderError{ExitCode: 1, FramesRead: 40, Expected: 100}
		}
		return mocks.SolidFrame(i, 100, 4, 4, mocks.IndexColor(i)), nil
	})

	var progressed int
	result, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:     plan(100, 10, 1),
		Frames:   stream,
		Progress: func(current, total int) { progressed++ },
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrDecoderFailure)
	var de *pipeline.DecoderError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 40, de.FramesRead)
	assert.Nil(t, result.Image, "no partial image is returned")
	assert.Equal(t, 40, progressed)
}

func TestExecute_StreamEndsEarly(t *testing.T) {
	stage := newStage(nil)

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(10, 4, 1),
		Frames: solidStream(6, 4, 4),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrDecoderFailure)
	var de *pipeline.DecoderError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 6, de.FramesRead)
	assert.Equal(t, 10, de.Expected)
}

func TestExecute_UnclassifiedStreamErrorIsDecoderFailure(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(10, func(i int) (ports.Frame, error) {
		return ports.Frame{}, errors.New("pipe broke")
	})

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{Plan: plan(10, 4, 1), Frames: stream})
	assert.ErrorIs(t, err, pipeline.ErrDecoderFailure)
}

func TestExecute_ZeroSizedFrame(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(10, func(i int) (ports.Frame, error) {
		if i == 3 {
			return ports.Frame{Index: i, Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}, nil
		}
		return mocks.SolidFrame(i, 10, 4, 4, mocks.IndexColor(i)), nil
	})

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{Plan: plan(10, 4, 1), Frames: stream})

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrComposition)
	var ce *pipeline.CompositionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.FrameIndex)
}

func TestExecute_NilFrameImage(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(10, func(i int) (ports.Frame, error) {
		return ports.Frame{Index: i}, nil
	})

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{Plan: plan(10, 4, 1), Frames: stream})
	assert.ErrorIs(t, err, pipeline.ErrComposition)
}

func TestExecute_OutOfOrderFrame(t *testing.T) {
	stage := newStage(nil)
	stream := mocks.NewFrameStream(10, func(i int) (ports.Frame, error) {
		f := mocks.SolidFrame(i, 10, 4, 4, mocks.IndexColor(i))
		if i == 2 {
			f.Index = 5
		}
		return f, nil
	})

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{Plan: plan(10, 4, 1), Frames: stream})

	var ce *pipeline.CompositionError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, 2, ce.FrameIndex)
}

func TestExecute_ExtraFrame(t *testing.T) {
	stage := newStage(nil)

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(10, 4, 1),
		Frames: solidStream(11, 4, 4),
	})

	var ce *pipeline.CompositionError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, 10, ce.FrameIndex)
}

func TestExecute_EmptyPlan(t *testing.T) {
	stage := newStage(nil)

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(10, 0, 1),
		Frames: solidStream(10, 4, 4),
	})
	assert.ErrorIs(t, err, pipeline.ErrInvalidNumericParameter)
}

func TestExecute_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	stage := newStage(sink)

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(6, 4, 2),
		Frames: solidStream(3, 8, 8),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sink.StripCount())
	require.Contains(t, sink.Strips, 1)
	assert.Equal(t, image.Rect(0, 0, 2, 4), sink.Strips[1].Bounds())
	require.Contains(t, sink.Frames, 1)
	assert.Equal(t, image.Rect(0, 0, 8, 8), sink.Frames[1].Bounds())
}

func TestAverageRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 30, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 60, A: 255})
	img.SetRGBA(2, 0, color.RGBA{R: 90, A: 255})
	img.SetRGBA(0, 1, color.RGBA{G: 10, A: 255})
	img.SetRGBA(1, 1, color.RGBA{G: 10, A: 255})
	img.SetRGBA(2, 1, color.RGBA{G: 11, A: 255})

	col := averageRows(img)

	assert.Equal(t, image.Rect(0, 0, 1, 2), col.Bounds())
	assert.Equal(t, color.RGBA{R: 60, A: 255}, col.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{G: 10, A: 255}, col.RGBAAt(0, 1))
}

func TestAverageRows_SubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{B: uint8(x * 10), A: 255})
		}
	}
	sub := img.SubImage(image.Rect(2, 1, 4, 3)).(*image.RGBA)

	col := averageRows(sub)

	assert.Equal(t, 2, col.Bounds().Dy())
	assert.Equal(t, color.RGBA{B: 25, A: 255}, col.RGBAAt(0, 0))
}

func TestExecute_DrawsEachStripAtItsOffset(t *testing.T) {
	renderer := &mocks.Renderer{}
	stage := NewStage(renderer, &mocks.NullSink{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Plan:   plan(12, 7, 4),
		Frames: solidStream(3, 16, 9),
	})
	require.NoError(t, err)

	canvases := renderer.Canvases()
	require.Len(t, canvases, 1)
	assert.Equal(t, image.Rect(0, 0, 12, 7), canvases[0].Bounds())
	assert.Equal(t, []mocks.Draw{
		{X: 0, Y: 0, Size: image.Pt(4, 7)},
		{X: 4, Y: 0, Size: image.Pt(4, 7)},
		{X: 8, Y: 0, Size: image.Pt(4, 7)},
	}, canvases[0].Draws)
}
