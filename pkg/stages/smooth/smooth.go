// Package smooth implements the smoothed barcode stage.
package smooth

import (
	"context"
	"errors"

	"github.com/disintegration/imaging"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var errEmptyImage = errors.New("smooth: image has no pixels")

// Stage derives the smoothed variant of a barcode: every column becomes
// its mean color, optionally blurred horizontally.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new smooth stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger.WithComponent("smooth")}
}

// Execute returns a new image with the dimensions of input.Image.
// input.Image is never modified.
func (s *Stage) Execute(ctx context.Context, input pipeline.SmoothInput) (pipeline.SmoothResult, error) {
	if input.Image == nil || input.Image.Bounds().Empty() {
		return pipeline.SmoothResult{}, errEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return pipeline.SmoothResult{}, pipeline.Cancelled(err)
	}

	b := input.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	s.logger.Debug("Smoothing %dx%d image", w, h)

	// Box over the full height gives the exact column mean.
	row := imaging.Resize(input.Image, w, 1, imaging.Box)
	if input.Sigma > 0 {
		row = imaging.Blur(row, input.Sigma)
	}

	return pipeline.SmoothResult{
		Image: imaging.Resize(row, w, h, imaging.NearestNeighbor),
	}, nil
}
