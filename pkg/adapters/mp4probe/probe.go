// Package mp4probe reads back fragmented MP4 segments and summarizes the
// H.264 track they carry.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when a file has no H.264 video track.
	ErrNoVideoTrack = errors.New("mp4probe: no avc1 video track found")

	// ErrNotFragmented is returned for progressive MP4 files.
	ErrNotFragmented = errors.New("mp4probe: file is not fragmented")
)

// Result summarizes one segment.
type Result struct {
	Format    *ports.FormatDescription
	Timescale uint32
	Fragments int
	Samples   int
	Keyframes int
	// Bytes is the total sample payload size.
	Bytes    int64
	Duration time.Duration
	// FragmentsStartWithKeyframe is false when any fragment begins with a
	// non-sync sample.
	FragmentsStartWithKeyframe bool
}

// ProbeFile probes an MP4 file on disk.
func ProbeFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Probe(f)
}

// ProbeBytes probes MP4 data held in memory.
func ProbeBytes(data []byte) (*Result, error) {
	return Probe(bytes.NewReader(data))
}

// Probe decodes a fragmented MP4 stream.
func Probe(reader io.Reader) (*Result, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !mp4File.IsFragmented() || mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, ErrNotFragmented
	}

	var (
		trackID uint32
		avcC    *mp4.AvcCBox
		res     = &Result{Timescale: 1000, FragmentsStartWithKeyframe: true}
	)
	for _, trak := range mp4File.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if avc1, ok := child.(*mp4.VisualSampleEntryBox); ok && avc1.AvcC != nil {
				avcC = avc1.AvcC
			}
		}
		if avcC != nil {
			trackID = trak.Tkhd.TrackID
			if trak.Mdia.Mdhd != nil {
				res.Timescale = trak.Mdia.Mdhd.Timescale
			}
			break
		}
	}
	if avcC == nil || len(avcC.SPSnalus) == 0 || len(avcC.PPSnalus) == 0 {
		return nil, ErrNoVideoTrack
	}

	format, err := avc.FormatFromParameterSets(avcC.SPSnalus[0], avcC.PPSnalus[0])
	if err != nil {
		return nil, fmt.Errorf("parse parameter sets: %w", err)
	}
	res.Format = format

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var ticks uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("get samples: %w", err)
			}
			res.Fragments++
			for i, s := range samples {
				sync := s.Flags == mp4.SyncSampleFlags
				if i == 0 && !sync {
					res.FragmentsStartWithKeyframe = false
				}
				if sync {
					res.Keyframes++
				}
				res.Samples++
				res.Bytes += int64(len(s.Data))
				ticks += uint64(s.Dur)
			}
		}
	}
	if res.Timescale > 0 {
		res.Duration = time.Duration(ticks) * time.Second / time.Duration(res.Timescale)
	}
	return res, nil
}
