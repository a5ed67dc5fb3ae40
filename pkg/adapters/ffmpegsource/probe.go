package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var errNoVideoStream = errors.New("no video stream")

type probeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Duration string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the dimensions and duration of the first video stream with ffprobe.
func (s *Source) Probe(ctx context.Context, path string) (ports.Metadata, error) {
	ffprobe, err := FindFFprobe(s.opts.FFprobePath)
	if err != nil {
		return ports.Metadata{}, err
	}

	s.logger.Debug("Probing %s", path)

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration:format=duration",
		"-of", "json",
		path,
	}

	var stdout, stderr bytes.Buffer
	cmd := s.command(ctx, ffprobe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ports.Metadata{}, pipeline.Cancelled(ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ports.Metadata{}, &pipeline.DecoderError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
				Err:      errors.New("ffprobe failed"),
			}
		}
		return ports.Metadata{}, fmt.Errorf("%w: start ffprobe: %v", pipeline.ErrDecoderUnavailable, err)
	}

	meta, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return ports.Metadata{}, &pipeline.DecoderError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	s.logger.Debug("Probed %s: %dx%d, %s", path, meta.Width, meta.Height, meta.Duration)
	return meta, nil
}

func parseProbeOutput(data []byte) (ports.Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.Metadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return ports.Metadata{}, errNoVideoStream
	}

	st := out.Streams[0]
	if st.Width <= 0 || st.Height <= 0 {
		return ports.Metadata{}, fmt.Errorf("invalid video dimensions %dx%d", st.Width, st.Height)
	}

	// Matroska and some other containers only report the duration on the format.
	d, ok := parseSeconds(st.Duration)
	if !ok {
		d, ok = parseSeconds(out.Format.Duration)
	}
	if !ok {
		return ports.Metadata{}, errors.New("unknown video duration")
	}

	return ports.Metadata{Width: st.Width, Height: st.Height, Duration: d}, nil
}

func parseSeconds(s string) (time.Duration, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
