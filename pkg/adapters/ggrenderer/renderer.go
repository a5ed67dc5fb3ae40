// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/moviebarcode/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	scaler draw.Scaler
}

// New creates a new Renderer that resamples with bilinear interpolation.
func New() *Renderer {
	return &Renderer{scaler: draw.BiLinear}
}

// NewWithScaler creates a Renderer with a custom resampling kernel.
func NewWithScaler(s draw.Scaler) *Renderer {
	return &Renderer{scaler: s}
}

// CreateCanvas creates a new drawing canvas filled with bg.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resamples an image into a new RGBA image of the given size.
// A source that already has the target size is copied without resampling.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := img.Bounds()
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}
	r.scaler.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImage copies img onto the canvas at (x, y).
// Unlike gg's DrawImage this does not blend, so strips land pixel-exact.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	dst, ok := c.dc.Image().(draw.Image)
	if !ok {
		c.dc.DrawImage(img, x, y)
		return
	}
	b := img.Bounds()
	rect := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(dst, rect, img, b.Min, draw.Src)
}

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.dc.Width(), c.dc.Height())
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
