package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/moviebarcode/pkg/ports"
)

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 40, color.Black)
	require.NotNil(t, canvas)

	img := canvas.ToImage()
	bounds := img.Bounds()
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 40, bounds.Dy())

	rr, g, b, a := img.At(50, 20).RGBA()
	assert.Equal(t, [4]uint32{0, 0, 0, 0xffff}, [4]uint32{rr, g, b, a}, "opaque black background")
	assert.Equal(t, bounds, canvas.Bounds())
}

func TestCanvas_DrawImageIsPixelExact(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(10, 4, color.Black)

	// Semi-transparent source must replace, not blend.
	strip := fill(2, 4, color.RGBA{R: 100, G: 0, B: 0, A: 128})
	canvas.DrawImage(strip, 4, 0)

	img := canvas.ToImage().(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 100, A: 128}, img.RGBAAt(4, 0))
	assert.Equal(t, color.RGBA{R: 100, A: 128}, img.RGBAAt(5, 3))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(3, 0), "column 3 untouched")
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(6, 0), "column 6 untouched")
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	src := fill(64, 48, color.RGBA{R: 10, G: 200, B: 30, A: 255})

	out := r.ResizeImage(src, 3, 90)
	require.Equal(t, image.Rect(0, 0, 3, 90), out.Bounds())

	// A uniform source stays uniform after bilinear resampling.
	assert.Equal(t, color.RGBA{R: 10, G: 200, B: 30, A: 255}, out.(*image.RGBA).RGBAAt(1, 45))
}

func TestRenderer_ResizeImageDoesNotAlias(t *testing.T) {
	r := New()
	src := fill(4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	out := r.ResizeImage(src, 4, 4).(*image.RGBA)
	out.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})

	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, src.RGBAAt(0, 0), "source untouched")
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()
	img := fill(50, 50, color.RGBA{R: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 50), decoded.Bounds())
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()
	img := fill(30, 20, color.RGBA{G: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), decoded.Bounds())

	rr, g, _, _ := decoded.At(10, 10).RGBA()
	assert.Zero(t, rr, "PNG is lossless")
	assert.Equal(t, uint32(0xffff), g, "PNG is lossless")
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()
	_, err := r.EncodeImage(fill(1, 1, color.RGBA{}), ports.ImageFormat(99), 0)
	assert.Error(t, err)
}
