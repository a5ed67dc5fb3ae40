package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/moviebarcode/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// By default it creates recording canvases, encodes to a fixed payload and
// resizes to a blank image of the requested size.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	mu       sync.Mutex
	canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{width: width, height: height}
	m.mu.Lock()
	m.canvases = append(m.canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte("encoded:" + format.String()), nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Canvases returns the canvases created by default (for test verification).
func (m *Renderer) Canvases() []*Canvas {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Canvas(nil), m.canvases...)
}

var _ ports.Renderer = (*Renderer)(nil)

// Draw records one DrawImage call.
type Draw struct {
	X, Y int
	Size image.Point
}

// Canvas is a mock implementation of ports.Canvas that records draws.
type Canvas struct {
	width  int
	height int
	img    *image.RGBA

	Draws []Draw
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.Draws = append(m.Draws, Draw{X: x, Y: y, Size: img.Bounds().Size()})
}

func (m *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Canvas) ToImage() image.Image {
	if m.img != nil {
		return m.img
	}
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

var _ ports.Canvas = (*Canvas)(nil)
