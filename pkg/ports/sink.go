package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving sampled frames and strips for inspecting a generation.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SavePlanJSON saves the validated generation plan as JSON.
	SavePlanJSON(data []byte) error

	// SaveFrame saves a sampled frame at native resolution.
	SaveFrame(index int, img image.Image) error

	// SaveStrip saves the strip produced from a sampled frame.
	SaveStrip(index int, img image.Image) error
}
