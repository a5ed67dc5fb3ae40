// Package composite implements the barcode composition stage.
package composite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var (
	errEmptyFrame = errors.New("frame has no pixels")
	errExtraFrame = errors.New("stream yielded more frames than requested")
	errEarlyEnd   = errors.New("stream ended early")
)

// Stage reduces sampled frames to strips and writes them side by side.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new composite stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("composite"),
	}
}

// Execute pulls exactly Plan.FrameCount() frames from input.Frames and
// returns the finished canvas. Strip i always covers columns
// [i*BarWidth, (i+1)*BarWidth) and nothing else. The first error aborts
// the composition and the partial canvas is discarded.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (pipeline.CompositeResult, error) {
	plan := input.Plan
	count := plan.FrameCount()
	if count <= 0 || plan.OutputHeight <= 0 {
		return pipeline.CompositeResult{}, fmt.Errorf("%w: nothing to compose for %dx%d with bar width %d",
			pipeline.ErrInvalidNumericParameter, plan.OutputWidth, plan.OutputHeight, plan.BarWidth)
	}

	start := time.Now()
	canvas := s.renderer.CreateCanvas(plan.OutputWidth, plan.OutputHeight, color.Black)
	logEvery := max(1, count/10)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return pipeline.CompositeResult{}, pipeline.Cancelled(err)
		}

		frame, err := input.Frames.Next(ctx)
		if err != nil {
			return pipeline.CompositeResult{}, s.streamError(ctx, err, i, count)
		}
		if frame.Index != i {
			return pipeline.CompositeResult{}, &pipeline.CompositionError{
				FrameIndex: i,
				Err:        fmt.Errorf("expected frame %d, got %d", i, frame.Index),
			}
		}

		strip, err := s.reduce(frame.Image, plan)
		if err != nil {
			return pipeline.CompositeResult{}, &pipeline.CompositionError{FrameIndex: i, Err: err}
		}

		canvas.DrawImage(strip, i*plan.BarWidth, 0)

		if s.sink.Enabled() {
			if err := s.sink.SaveFrame(i, frame.Image); err != nil {
				s.logger.Debug("debug sink: %v", err)
			}
			if err := s.sink.SaveStrip(i, strip); err != nil {
				s.logger.Debug("debug sink: %v", err)
			}
		}

		if input.Progress != nil {
			input.Progress(i, count)
		}
		if (i+1)%logEvery == 0 {
			s.logger.Debug("Compositing strip %d/%d", i+1, count)
		}
	}

	// The stream must end exactly here.
	if err := ctx.Err(); err != nil {
		return pipeline.CompositeResult{}, pipeline.Cancelled(err)
	}
	if _, err := input.Frames.Next(ctx); err != io.EOF {
		if err == nil {
			return pipeline.CompositeResult{}, &pipeline.CompositionError{FrameIndex: count, Err: errExtraFrame}
		}
		return pipeline.CompositeResult{}, s.streamError(ctx, err, count, count)
	}

	elapsed := time.Since(start)
	s.logger.Debug("Composition completed in %s", elapsed.Round(time.Millisecond))

	return pipeline.CompositeResult{
		Image:   canvas.ToImage(),
		Strips:  count,
		Elapsed: elapsed,
	}, nil
}

// streamError classifies an error returned by FrameStream.Next.
func (s *Stage) streamError(ctx context.Context, err error, read, count int) error {
	switch {
	case pipeline.IsCancelled(err):
		return err
	case ctx.Err() != nil:
		return pipeline.Cancelled(ctx.Err())
	case err == io.EOF:
		return &pipeline.DecoderError{FramesRead: read, Expected: count, Err: errEarlyEnd}
	case errors.Is(err, pipeline.ErrDecoderFailure):
		return err
	default:
		return &pipeline.DecoderError{FramesRead: read, Expected: count, Err: err}
	}
}

// reduce turns a frame into a BarWidth x OutputHeight strip.
func (s *Stage) reduce(img *image.RGBA, plan pipeline.GenerationPlan) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errEmptyFrame
	}

	switch plan.Mode {
	case pipeline.ModeAverage:
		return s.renderer.ResizeImage(averageRows(img), plan.BarWidth, plan.OutputHeight), nil
	default:
		return s.renderer.ResizeImage(img, plan.BarWidth, plan.OutputHeight), nil
	}
}

// averageRows collapses every row of img to its mean color, giving a
// one pixel wide column of the same height.
func averageRows(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	col := image.NewRGBA(image.Rect(0, 0, 1, h))
	half := uint64(w / 2)

	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		var r, g, bl, a uint64
		for x := 0; x < w; x++ {
			p := row[4*x : 4*x+4 : 4*x+4]
			r += uint64(p[0])
			g += uint64(p[1])
			bl += uint64(p[2])
			a += uint64(p[3])
		}
		n := uint64(w)
		o := col.PixOffset(0, y)
		col.Pix[o] = uint8((r + half) / n)
		col.Pix[o+1] = uint8((g + half) / n)
		col.Pix[o+2] = uint8((bl + half) / n)
		col.Pix[o+3] = uint8((a + half) / n)
	}
	return col
}
