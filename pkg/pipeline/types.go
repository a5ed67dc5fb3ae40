package pipeline

import (
	"image"
	"time"

	"github.com/user/moviebarcode/pkg/ports"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultBarWidth is the strip width used when none is given.
	DefaultBarWidth = "1"
	// DefaultImageWidth is the output width used when none is given.
	DefaultImageWidth = "1000"
	// DefaultExtension is appended to derived output file names.
	DefaultExtension = ".png"
	// SmoothedSuffix is inserted before the extension of the smoothed output.
	SmoothedSuffix = "_smoothed"
)

// StripMode selects how a frame is reduced to a strip.
type StripMode string

const (
	// ModeResize resamples the whole frame down to the strip size.
	ModeResize StripMode = "resize"
	// ModeAverage collapses each row to its mean color before resampling.
	ModeAverage StripMode = "average"
)

// ParseStripMode parses a mode name. The empty string selects ModeResize.
func ParseStripMode(s string) (StripMode, bool) {
	switch StripMode(s) {
	case "", ModeResize:
		return ModeResize, true
	case ModeAverage:
		return ModeAverage, true
	default:
		return "", false
	}
}

// =============================================================================
// Validate Stage Types
// =============================================================================

// RawParameters are the unvalidated, textual generation parameters for one
// input file.
type RawParameters struct {
	InputPath        string
	OutputPath       string // File or directory; empty derives from InputPath
	BarWidth         string // Default: "1"
	ImageWidth       string // Default: "1000"
	ImageHeight      string // Ignored when UseInputHeight is set
	UseInputHeight   bool
	GenerateSmoothed bool
	Overwrite        bool   // Evaluated by the orchestrator, never by the validator
	Mode             string // "resize" (default) or "average"
}

// GenerationPlan is the validated, immutable description of one barcode
// generation request.
type GenerationPlan struct {
	InputPath          string    `json:"input_path" validate:"required"`
	OutputPath         string    `json:"output_path" validate:"required"`
	BarWidth           int       `json:"bar_width" validate:"gt=0"`
	OutputWidth        int       `json:"output_width" validate:"gt=0,gtefield=BarWidth"`
	OutputHeight       int       `json:"output_height" validate:"gt=0"`
	GenerateSmoothed   bool      `json:"generate_smoothed"`
	SmoothedOutputPath string    `json:"smoothed_output_path,omitempty" validate:"required_if=GenerateSmoothed true"`
	Mode               StripMode `json:"mode" validate:"oneof=resize average"`
}

// FrameCount returns the number of frames to sample, one per strip.
func (p GenerationPlan) FrameCount() int {
	if p.BarWidth <= 0 {
		return 0
	}
	return p.OutputWidth / p.BarWidth
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// ProgressFunc observes composition progress. It receives the index of the
// strip just written and the total number of strips.
type ProgressFunc func(current, total int)

// CompositeInput contains parameters for barcode composition.
type CompositeInput struct {
	Plan     GenerationPlan
	Frames   ports.FrameStream
	Progress ProgressFunc // Optional
}

// CompositeResult contains the finished barcode.
type CompositeResult struct {
	Image   image.Image
	Strips  int
	Elapsed time.Duration
}

// =============================================================================
// Smooth Stage Types
// =============================================================================

// SmoothInput contains the composite to derive a smoothed image from.
type SmoothInput struct {
	Image image.Image
	Sigma float64 // Horizontal Gaussian blur applied after column averaging; 0 disables it
}

// SmoothResult contains the smoothed image.
type SmoothResult struct {
	Image image.Image
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains an image and the path it will be saved to.
// The path extension selects the encoding.
type EncodeInput struct {
	Image   image.Image
	Path    string
	Quality int // JPEG quality (1-100); 0 selects the default
}

// EncodeResult contains the encoded image bytes.
type EncodeResult struct {
	Data        []byte
	ContentType string
}
