package mocks

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/user/moviebarcode/pkg/ports"
)

// ErrStreamClosed is returned by FrameStream.Next after Close.
var ErrStreamClosed = errors.New("mocks: stream closed")

// SolidFrame returns sample i of count as a w x h frame filled with c.
func SolidFrame(i, count, w, h int, c color.RGBA) ports.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p] = c.R
		img.Pix[p+1] = c.G
		img.Pix[p+2] = c.B
		img.Pix[p+3] = c.A
	}
	frac := 0.0
	if count > 0 {
		frac = float64(i) / float64(count)
	}
	return ports.Frame{Index: i, Fraction: frac, Image: img}
}

// IndexColor is the default color of sample i: a gray level equal to i mod 256.
func IndexColor(i int) color.RGBA {
	v := uint8(i % 256)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// FrameStream is a mock implementation of ports.FrameStream.
type FrameStream struct {
	mu     sync.Mutex
	count  int
	gen    func(i int) (ports.Frame, error)
	next   int
	closed bool

	// OnNext is called with the index of each frame before it is produced.
	OnNext func(i int)

	CloseCalls int
}

// NewFrameStream creates a stream of count frames produced by gen.
// An error from gen is returned without advancing the stream.
func NewFrameStream(count int, gen func(i int) (ports.Frame, error)) *FrameStream {
	return &FrameStream{count: count, gen: gen}
}

func (m *FrameStream) Next(ctx context.Context) (ports.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ports.Frame{}, ErrStreamClosed
	}
	if m.next >= m.count {
		return ports.Frame{}, io.EOF
	}

	i := m.next
	if m.OnNext != nil {
		m.OnNext(i)
	}
	frame, err := m.gen(i)
	if err != nil {
		return ports.Frame{}, err
	}
	m.next++
	return frame, nil
}

func (m *FrameStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.CloseCalls++
	return nil
}

// Closed reports whether Close was called.
func (m *FrameStream) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Yielded returns the number of frames produced so far.
func (m *FrameStream) Yielded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

var _ ports.FrameStream = (*FrameStream)(nil)

// FrameSource is a mock implementation of ports.FrameSource.
// By default it reports Metadata and yields solid frames of that size
// colored with IndexColor.
type FrameSource struct {
	mu sync.Mutex

	Metadata ports.Metadata

	ProbeFunc  func(ctx context.Context, path string) (ports.Metadata, error)
	SampleFunc func(ctx context.Context, path string, count int) (ports.FrameStream, error)
	// FrameFunc replaces the default frame generator when SampleFunc is nil.
	FrameFunc func(i, count int) (ports.Frame, error)

	probeCalls  int
	sampleCalls int
	streams     []*FrameStream
}

// NewFrameSource creates a new mock FrameSource.
func NewFrameSource(meta ports.Metadata) *FrameSource {
	return &FrameSource{Metadata: meta}
}

func (m *FrameSource) Probe(ctx context.Context, path string) (ports.Metadata, error) {
	m.mu.Lock()
	m.probeCalls++
	m.mu.Unlock()

	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return m.Metadata, nil
}

func (m *FrameSource) Sample(ctx context.Context, path string, count int) (ports.FrameStream, error) {
	m.mu.Lock()
	m.sampleCalls++
	m.mu.Unlock()

	if m.SampleFunc != nil {
		return m.SampleFunc(ctx, path, count)
	}

	gen := func(i int) (ports.Frame, error) {
		if m.FrameFunc != nil {
			return m.FrameFunc(i, count)
		}
		return SolidFrame(i, count, m.Metadata.Width, m.Metadata.Height, IndexColor(i)), nil
	}
	stream := NewFrameStream(count, gen)

	m.mu.Lock()
	m.streams = append(m.streams, stream)
	m.mu.Unlock()
	return stream, nil
}

// ProbeCalls returns the number of Probe calls (for test verification).
func (m *FrameSource) ProbeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeCalls
}

// SampleCalls returns the number of Sample calls (for test verification).
func (m *FrameSource) SampleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleCalls
}

// Streams returns the streams handed out by Sample.
func (m *FrameSource) Streams() []*FrameStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FrameStream(nil), m.streams...)
}

var _ ports.FrameSource = (*FrameSource)(nil)
