// Package mp4probe reads video metadata from ISO-BMFF files (MP4, MOV)
// without decoding any frame.
package mp4probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the file has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrUnknownDuration is returned when neither the headers nor the
	// fragments give a positive duration.
	ErrUnknownDuration = errors.New("mp4probe: unknown duration")
)

// Extensions lists the file extensions handled natively.
var Extensions = []string{".mp4", ".m4v", ".mov"}

// Supports reports whether path has an ISO-BMFF extension.
func Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Prober implements ports.Prober with mp4ff.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe reads the dimensions and duration of the first video track.
func (p *Prober) Probe(ctx context.Context, path string) (ports.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return ports.Metadata{}, pipeline.Cancelled(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return ports.Metadata{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader reads metadata from an io.ReadSeeker. Media data is not loaded.
func ProbeReader(reader io.ReadSeeker) (ports.Metadata, error) {
	mp4File, err := mp4.DecodeFile(reader, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return ports.Metadata{}, fmt.Errorf("%w: decode mp4: %v", pipeline.ErrDecoderFailure, err)
	}
	return metadataFromFile(mp4File)
}

func metadataFromFile(mp4File *mp4.File) (ports.Metadata, error) {
	moov := mp4File.Moov
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return ports.Metadata{}, ErrNoVideoTrack
	}

	trak := videoTrack(moov)
	if trak == nil {
		return ports.Metadata{}, ErrNoVideoTrack
	}

	meta := ports.Metadata{}
	meta.Width, meta.Height = dimensions(trak)
	if meta.Width <= 0 || meta.Height <= 0 {
		return ports.Metadata{}, fmt.Errorf("%w: invalid video dimensions %dx%d", pipeline.ErrDecoderFailure, meta.Width, meta.Height)
	}

	meta.Duration = headerDuration(moov, trak)
	if meta.Duration <= 0 && mp4File.IsFragmented() {
		d, err := fragmentDuration(mp4File, moov, trak)
		if err != nil {
			return ports.Metadata{}, err
		}
		meta.Duration = d
	}
	if meta.Duration <= 0 {
		return ports.Metadata{}, ErrUnknownDuration
	}

	return meta, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// dimensions prefers the coded size of the sample entry over the track
// header, which carries the display size.
func dimensions(trak *mp4.TrakBox) (int, int) {
	if trak.Mdia != nil && trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
				return int(vse.Width), int(vse.Height)
			}
		}
	}
	if trak.Tkhd != nil {
		return int(trak.Tkhd.Width >> 16), int(trak.Tkhd.Height >> 16)
	}
	return 0, 0
}

func headerDuration(moov *mp4.MoovBox, trak *mp4.TrakBox) time.Duration {
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		if d := toDuration(trak.Mdia.Mdhd.Duration, trak.Mdia.Mdhd.Timescale); d > 0 {
			return d
		}
	}
	if moov.Mvhd != nil {
		return toDuration(moov.Mvhd.Duration, moov.Mvhd.Timescale)
	}
	return 0
}

// fragmentDuration spans the decode times of all runs of the track.
// Only moof headers are read; sample data stays on disk.
func fragmentDuration(mp4File *mp4.File, moov *mp4.MoovBox, trak *mp4.TrakBox) (time.Duration, error) {
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var timescale uint32
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	var (
		start, end, next uint64
		seen             bool
	)
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}

				base := next
				if traf.Tfdt != nil {
					base = traf.Tfdt.BaseMediaDecodeTime()
				}

				var defaultDur uint32
				if traf.Tfhd.HasDefaultSampleDuration() {
					defaultDur = traf.Tfhd.DefaultSampleDuration
				} else if trex != nil {
					defaultDur = trex.DefaultSampleDuration
				}

				var dur uint64
				for _, trun := range traf.Truns {
					dur += trun.Duration(defaultDur)
				}

				if !seen || base < start {
					start = base
				}
				if base+dur > end {
					end = base + dur
				}
				next = base + dur
				seen = true
			}
		}
	}

	if !seen || end <= start {
		return 0, ErrUnknownDuration
	}
	return toDuration(end-start, timescale), nil
}

func toDuration(units uint64, timescale uint32) time.Duration {
	if timescale == 0 || units == 0 {
		return 0
	}
	return time.Duration(float64(units) / float64(timescale) * float64(time.Second))
}

// Ensure Prober implements ports.Prober
var _ ports.Prober = (*Prober)(nil)
