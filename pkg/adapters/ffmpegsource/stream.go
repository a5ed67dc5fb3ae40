package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var errStreamClosed = errors.New("ffmpegsource: stream closed")

// stream implements ports.FrameStream over a running ffmpeg process.
// It is meant for a single consumer goroutine.
type stream struct {
	cmd     *exec.Cmd
	procCtx context.Context
	cancel  context.CancelFunc
	stdout  io.ReadCloser
	stderr  *tailBuffer

	width, height int
	count         int
	duration      time.Duration
	logger        ports.Logger

	next    int
	last    []byte // pixels of the last decoded frame
	clamped bool   // decoder ended early; last is repeated up to count
	err     error  // terminal error, returned by every later Next
	waited  bool
	waitErr error

	closeOnce sync.Once
	closed    bool
}

func (s *stream) Next(ctx context.Context) (ports.Frame, error) {
	if s.closed {
		return ports.Frame{}, errStreamClosed
	}
	if s.err != nil {
		return ports.Frame{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return ports.Frame{}, s.fail(pipeline.Cancelled(err))
	}

	if s.next >= s.count {
		if err := s.wait(); err != nil {
			return ports.Frame{}, s.fail(s.decoderError(err))
		}
		s.logger.Debug("Decoder finished after %d frames", s.next)
		s.err = io.EOF
		return ports.Frame{}, io.EOF
	}
	if s.clamped {
		return s.frame(bytes.Clone(s.last)), nil
	}

	// Unblock a pending read when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		s.cancel()
		s.stdout.Close()
	})
	buf := make([]byte, 4*s.width*s.height)
	_, err := io.ReadFull(s.stdout, buf)
	stop()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ports.Frame{}, s.fail(pipeline.Cancelled(ctxErr))
		}
		if parentErr := context.Cause(s.procCtx); parentErr != nil && !errors.Is(parentErr, context.DeadlineExceeded) {
			return ports.Frame{}, s.fail(pipeline.Cancelled(parentErr))
		}
		// A clean exit on a frame boundary means the video stream is shorter
		// than the probed duration. Trailing samples are clamped to the last
		// decoded picture.
		if err == io.EOF && s.last != nil && s.procCtx.Err() == nil && s.wait() == nil {
			s.logger.Debug("Video ended after %d of %d frames, repeating the last frame", s.next, s.count)
			s.clamped = true
			return s.frame(bytes.Clone(s.last)), nil
		}
		cause := fmt.Errorf("truncated frame stream: %w", err)
		if errors.Is(s.procCtx.Err(), context.DeadlineExceeded) {
			cause = errors.New("decoder timed out")
		}
		waitErr := s.wait()
		de := s.decoderError(waitErr)
		de.Err = cause
		return ports.Frame{}, s.fail(de)
	}

	s.last = buf
	return s.frame(buf), nil
}

func (s *stream) frame(pix []byte) ports.Frame {
	i := s.next
	s.next++
	return ports.Frame{
		Index:     i,
		Fraction:  float64(i) / float64(s.count),
		Timestamp: ports.SampleTimestamp(i, s.count, s.duration),
		Image: &image.RGBA{
			Pix:    pix,
			Stride: 4 * s.width,
			Rect:   image.Rect(0, 0, s.width, s.height),
		},
	}
}

// Close kills the decoder if it is still running and releases its pipes.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.cancel()
		s.wait()
	})
	return nil
}

func (s *stream) fail(err error) error {
	s.err = err
	s.cancel()
	s.wait()
	return err
}

func (s *stream) wait() error {
	if !s.waited {
		s.waited = true
		s.waitErr = s.cmd.Wait()
	}
	return s.waitErr
}

func (s *stream) decoderError(waitErr error) *pipeline.DecoderError {
	de := &pipeline.DecoderError{
		FramesRead: s.next,
		Expected:   s.count,
		Stderr:     strings.TrimSpace(s.stderr.String()),
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		de.ExitCode = exitErr.ExitCode()
	} else if waitErr != nil {
		de.Err = waitErr
	}
	if de.ExitCode == 0 && de.Err == nil {
		de.Err = errors.New("decoder exited without error")
	}
	return de
}

var _ ports.FrameStream = (*stream)(nil)
