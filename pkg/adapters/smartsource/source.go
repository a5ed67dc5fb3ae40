// Package smartsource provides a frame source that picks the cheapest
// metadata backend for each file and decodes through ffmpeg.
package smartsource

import (
	"context"
	"time"

	"github.com/user/moviebarcode/pkg/adapters/ffmpegsource"
	"github.com/user/moviebarcode/pkg/adapters/logger"
	"github.com/user/moviebarcode/pkg/adapters/mp4probe"
	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

// Backend identifies the metadata backend that served a probe.
type Backend string

const (
	// BackendNative reads ISO-BMFF headers in process.
	BackendNative Backend = "mp4ff"
	// BackendFFprobe runs the ffprobe executable.
	BackendFFprobe Backend = "ffprobe"
)

// Info describes how a probe was served.
type Info struct {
	Backend Backend
	// NativeErr is set when the native probe failed and ffprobe was used instead.
	NativeErr error
}

// Options configures the smart source.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
	// DecoderTimeout bounds one decode run. Zero means no limit.
	DecoderTimeout time.Duration
	// DisableNative forces every probe through ffprobe.
	DisableNative bool
}

// Sampler starts a decode when the metadata is already known.
type Sampler interface {
	SampleWithMetadata(ctx context.Context, path string, count int, meta ports.Metadata) (ports.FrameStream, error)
}

// Source implements ports.FrameSource.
type Source struct {
	native   ports.Prober
	supports func(path string) bool
	fallback ports.Prober
	sampler  Sampler
	logger   ports.Logger
}

// New creates a Source using mp4probe for MP4-family files and ffmpeg for
// everything else.
//
// The selection flow:
//   - .mp4/.m4v/.mov: read headers with mp4ff, fall back to ffprobe on any error
//   - other containers: ffprobe
//   - decoding: always ffmpeg
func New(opts Options, log ports.Logger) *Source {
	if log == nil {
		log = logger.NewNoop()
	}
	ff := ffmpegsource.New(ffmpegsource.Options{
		FFmpegPath:  opts.FFmpegPath,
		FFprobePath: opts.FFprobePath,
		Timeout:     opts.DecoderTimeout,
	}, log)

	s := &Source{
		native:   mp4probe.New(),
		supports: mp4probe.Supports,
		fallback: ff,
		sampler:  ff,
		logger:   log.WithComponent("source"),
	}
	if opts.DisableNative {
		s.native = nil
	}
	return s
}

// NewWith creates a Source from explicit backends. native may be nil.
func NewWith(native ports.Prober, supports func(string) bool, fallback ports.Prober, sampler Sampler, log ports.Logger) *Source {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Source{
		native:   native,
		supports: supports,
		fallback: fallback,
		sampler:  sampler,
		logger:   log.WithComponent("source"),
	}
}

// Probe returns the metadata of path.
func (s *Source) Probe(ctx context.Context, path string) (ports.Metadata, error) {
	meta, _, err := s.ProbeWithInfo(ctx, path)
	return meta, err
}

// ProbeWithInfo returns the metadata of path and which backend produced it.
func (s *Source) ProbeWithInfo(ctx context.Context, path string) (ports.Metadata, Info, error) {
	info := Info{Backend: BackendFFprobe}

	if s.native != nil && s.supports != nil && s.supports(path) {
		meta, err := s.native.Probe(ctx, path)
		if err == nil {
			info.Backend = BackendNative
			return meta, info, nil
		}
		if pipeline.IsCancelled(err) {
			return ports.Metadata{}, info, err
		}
		info.NativeErr = err
		s.logger.Debug("Native probe failed, falling back to ffprobe: %s", err.Error())
	}

	meta, err := s.fallback.Probe(ctx, path)
	return meta, info, err
}

// Sample probes path and starts decoding count frames.
func (s *Source) Sample(ctx context.Context, path string, count int) (ports.FrameStream, error) {
	meta, err := s.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.sampler.SampleWithMetadata(ctx, path, count, meta)
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
