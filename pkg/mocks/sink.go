package mocks

import (
	"image"
	"sync"

	"github.com/user/moviebarcode/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	PlanJSON []byte
	Frames   map[int]image.Image
	Strips   map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
		Strips:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SavePlanJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanJSON = data
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

func (m *DebugSink) SaveStrip(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Strips[index] = img
	return nil
}

// StripCount returns the number of saved strips (for test verification).
func (m *DebugSink) StripCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Strips)
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                              { return false }
func (m *NullSink) SavePlanJSON(data []byte) error             { return nil }
func (m *NullSink) SaveFrame(index int, img image.Image) error { return nil }
func (m *NullSink) SaveStrip(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
