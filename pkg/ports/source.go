package ports

import (
	"context"
	"image"
	"time"
)

// Metadata describes the primary video stream of an input file.
type Metadata struct {
	Width    int
	Height   int
	Duration time.Duration
}

// Frame is one sampled video frame at native resolution.
// Frames are not mutated after they are yielded.
type Frame struct {
	Index     int           // 0-based sample index
	Fraction  float64       // Index / count
	Timestamp time.Duration // Position in the source
	Image     *image.RGBA
}

// SampleTimestamp returns the position of sample i when count samples are
// spread evenly over duration. The result is clamped to [0, duration).
func SampleTimestamp(i, count int, duration time.Duration) time.Duration {
	if count <= 0 || i <= 0 || duration <= 0 {
		return 0
	}
	ts := time.Duration(float64(duration) * float64(i) / float64(count))
	if ts >= duration {
		ts = duration - 1
	}
	return ts
}

// Prober reads stream metadata without decoding frames.
type Prober interface {
	// Probe returns the width, height and duration of the primary video stream.
	Probe(ctx context.Context, path string) (Metadata, error)
}

// FrameSource abstracts video decoding for barcode generation.
type FrameSource interface {
	Prober

	// Sample starts decoding path and returns a stream of exactly count frames,
	// evenly spaced across the duration of the video.
	Sample(ctx context.Context, path string, count int) (FrameStream, error)
}

// FrameStream is a finite, pull-based sequence of frames.
// It is not restartable.
type FrameStream interface {
	// Next blocks until the next frame is decoded. It returns io.EOF once
	// all requested frames have been yielded.
	Next(ctx context.Context) (Frame, error)

	// Close stops the decoder and releases its resources.
	// It is safe to call Close more than once.
	Close() error
}
