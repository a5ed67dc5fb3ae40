// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/moviebarcode/pkg/ports"
)

// Sink saves debug output to files under a base directory:
//
//	plan.json
//	frames/frame-0000.png
//	strips/strip-0000.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePlanJSON saves the validated generation plan as JSON.
func (s *Sink) SavePlanJSON(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	path := filepath.Join(s.baseDir, "plan.json")
	return s.fs.WriteFile(path, data)
}

// SaveFrame saves a sampled frame at native resolution.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	return s.savePNG("frames", fmt.Sprintf("frame-%04d.png", index), img)
}

// SaveStrip saves the strip produced from a sampled frame.
func (s *Sink) SaveStrip(index int, img image.Image) error {
	return s.savePNG("strips", fmt.Sprintf("strip-%04d.png", index), img)
}

func (s *Sink) savePNG(subdir, name string, img image.Image) error {
	dir := filepath.Join(s.baseDir, subdir)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, name), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
