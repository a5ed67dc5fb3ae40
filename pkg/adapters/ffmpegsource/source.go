// Package ffmpegsource provides a frame source backed by the ffmpeg and
// ffprobe executables. Frames are streamed as raw RGBA over a pipe, one
// frame buffer at a time.
package ffmpegsource

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/user/moviebarcode/pkg/adapters/logger"
	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

// waitDelay bounds how long Wait blocks on pipes held open by
// descendants of a killed decoder.
const waitDelay = 2 * time.Second

// maxStderr is the number of trailing stderr bytes kept for error reports.
const maxStderr = 4096

// Options configures the ffmpeg frame source.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
	// Timeout bounds a whole Sample run. Zero means no limit.
	// Exceeding it is reported as a decoder failure, not a cancellation.
	Timeout time.Duration
}

// Source implements ports.FrameSource with ffprobe and ffmpeg subprocesses.
type Source struct {
	opts    Options
	logger  ports.Logger
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New creates a new Source.
func New(opts Options, log ports.Logger) *Source {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Source{
		opts:    opts,
		logger:  log.WithComponent("ffmpeg"),
		command: exec.CommandContext,
	}
}

// Sample probes path and starts decoding count evenly spaced frames.
func (s *Source) Sample(ctx context.Context, path string, count int) (ports.FrameStream, error) {
	meta, err := s.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.SampleWithMetadata(ctx, path, count, meta)
}

// SampleWithMetadata starts decoding count frames using already known metadata.
// The frames are scaled to meta.Width x meta.Height.
func (s *Source) SampleWithMetadata(ctx context.Context, path string, count int, meta ports.Metadata) (ports.FrameStream, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: frame count %d", pipeline.ErrInvalidNumericParameter, count)
	}
	if meta.Width <= 0 || meta.Height <= 0 || meta.Duration <= 0 {
		return nil, &pipeline.DecoderError{
			Expected: count,
			Err:      fmt.Errorf("unusable metadata %dx%d, %s", meta.Width, meta.Height, meta.Duration),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, pipeline.Cancelled(err)
	}

	ffmpeg, err := FindFFmpeg(s.opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	var (
		procCtx context.Context
		cancel  context.CancelFunc
	)
	if s.opts.Timeout > 0 {
		procCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
	} else {
		procCtx, cancel = context.WithCancel(ctx)
	}

	cmd := s.command(procCtx, ffmpeg, decodeArgs(path, count, meta)...)
	cmd.WaitDelay = waitDelay
	stderr := &tailBuffer{max: maxStderr}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: stdout pipe: %v", pipeline.ErrDecoderUnavailable, err)
	}

	s.logger.Debug("Starting decoder: %s", path)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start ffmpeg: %v", pipeline.ErrDecoderUnavailable, err)
	}

	return &stream{
		cmd:      cmd,
		procCtx:  procCtx,
		cancel:   cancel,
		stdout:   stdout,
		stderr:   stderr,
		width:    meta.Width,
		height:   meta.Height,
		count:    count,
		duration: meta.Duration,
		logger:   s.logger,
	}, nil
}

// decodeArgs builds the ffmpeg command line that emits exactly count RGBA
// frames, frame i taken at i/count of the duration. The last picture is
// cloned for one sample interval so a video stream that ends before the
// container duration still fills every trailing sample.
func decodeArgs(path string, count int, meta ports.Metadata) []string {
	seconds := meta.Duration.Seconds()
	filter := fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%s,fps=%d/%s,scale=%d:%d:flags=bilinear",
		strconv.FormatFloat(seconds/float64(count), 'f', 6, 64),
		count, strconv.FormatFloat(seconds, 'f', 6, 64), meta.Width, meta.Height)
	return []string{
		"-nostdin",
		"-v", "error",
		"-noautorotate",
		"-i", path,
		"-an", "-sn",
		"-vf", filter,
		"-frames:v", strconv.Itoa(count),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.buf.Write(p)
	if over := b.buf.Len() - b.max; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	return b.buf.String()
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
