package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts image processing operations.
type Renderer interface {
	// CreateCanvas creates a new drawing canvas with the specified dimensions and background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resamples an image to the specified dimensions.
	// The result never aliases img.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides drawing operations for compositing strips.
type Canvas interface {
	// DrawImage copies img onto the canvas at the specified position,
	// replacing the pixels it covers.
	DrawImage(img image.Image, x, y int)

	// Bounds returns the canvas bounds.
	Bounds() image.Rectangle

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// String returns the lowercase name of the format.
func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}
