// Package summarizer provides summary generation for batch results.
package summarizer

import (
	"time"

	"github.com/user/moviebarcode/pkg/orchestrator"
)

// Summary contains all data collected during a batch run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Elapsed     time.Duration

	// Generation settings shared by every file
	Settings Settings

	// Per-file outcomes, in input order
	Files []FileEntry

	// Totals per status
	Totals orchestrator.Counts
}

// Settings contains the generation configuration.
type Settings struct {
	Width    int
	Height   int // 0 means the height of each input
	BarWidth int
	Mode     string
	Smooth   bool
	Workers  int
}

// FileEntry describes the outcome for one input file.
type FileEntry struct {
	Input        string
	Output       string
	SmoothedPath string // Empty unless a smoothed image was written
	UploadURL    string
	Status       string
	Stage        string
	Error        string
	Width        int
	Height       int
	Strips       int
	Elapsed      time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets generation settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithElapsed sets the wall time of the batch.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// WithResults records the orchestrator results and their totals.
func (b *Builder) WithResults(results []orchestrator.FileResult) *Builder {
	for _, r := range results {
		b.summary.Files = append(b.summary.Files, entryFromResult(r))
	}
	b.summary.Totals = orchestrator.Tally(results)
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

func entryFromResult(r orchestrator.FileResult) FileEntry {
	e := FileEntry{
		Input:     r.InputPath,
		Output:    r.OutputPath,
		UploadURL: r.UploadURL,
		Status:    string(r.Status),
		Stage:     r.Stage,
		Width:     r.Width,
		Height:    r.Height,
		Strips:    r.Strips,
		Elapsed:   r.Elapsed,
	}
	if r.SmoothedWritten {
		e.SmoothedPath = r.SmoothedPath
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	} else if r.SmoothErr != nil {
		e.Stage = orchestrator.StageSmooth
		e.Error = r.SmoothErr.Error()
	}
	return e
}
