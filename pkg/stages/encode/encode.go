// Package encode implements the image encoding stage.
package encode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

// DefaultJPEGQuality is used when EncodeInput.Quality is zero.
const DefaultJPEGQuality = 90

// FormatFor returns the image format selected by the extension of path.
// .jpg and .jpeg select JPEG; everything else is written as PNG.
func FormatFor(path string) ports.ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return ports.FormatJPEG
	default:
		return ports.FormatPNG
	}
}

// ContentType returns the MIME type of an image format.
func ContentType(format ports.ImageFormat) string {
	if format == ports.FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Stage encodes a finished barcode for persistence.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("encode"),
	}
}

// Execute encodes input.Image in the format chosen by input.Path.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	if input.Image == nil || input.Image.Bounds().Empty() {
		return result, errors.New("no image to encode")
	}
	if err := ctx.Err(); err != nil {
		return result, pipeline.Cancelled(err)
	}

	format := FormatFor(input.Path)
	quality := input.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	s.logger.Debug("Encoding %s as %s", input.Path, format)
	data, err := s.renderer.EncodeImage(input.Image, format, quality)
	if err != nil {
		return result, fmt.Errorf("encode %s: %w", input.Path, err)
	}
	s.logger.Debug("Encoded %d bytes", len(data))

	result.Data = data
	result.ContentType = ContentType(format)
	return result, nil
}
