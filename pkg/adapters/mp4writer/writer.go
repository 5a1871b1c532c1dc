// Package mp4writer turns compressed H.264 samples into fragmented MP4.
// Each format change starts a new segment with its own init section, so a
// rebuilt session with new dimensions never shares a file with the old one.
package mp4writer

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
)

// Timescale is the track timescale in ticks per second.
const Timescale = 90000

const trackID = 1

// SegmentName returns the name of segment index for base. The first
// segment keeps base; later ones get a numeric suffix before the extension.
func SegmentName(base string, index int) string {
	if index == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), index, ext)
}

// Stats summarizes what a writer produced.
type Stats struct {
	Segments  int
	Fragments int
	Samples   int
	Bytes     int64
	Dropped   int
	// Names lists the written segments in order.
	Names []string
}

// Writer is a ports.Delegate that writes fMP4 segments to a store.
// Segments are written whole when they end, on format change or Close.
type Writer struct {
	store ports.SegmentStore
	base  string
	log   ports.Logger

	mu       sync.Mutex
	segment  int
	format   *ports.FormatDescription
	buf      bytes.Buffer
	frag     *mp4.Fragment
	seq      uint32
	firstDTS time.Duration
	haveDTS  bool
	lastDur  uint32
	stats    Stats
	err      error
	closed   bool
}

// New creates a writer storing segments named after base.
func New(store ports.SegmentStore, base string, log ports.Logger) *Writer {
	return &Writer{
		store: store,
		base:  base,
		log:   log.WithComponent("mp4writer"),
	}
}

// OnFormatChanged ends the current segment and starts a new one.
func (w *Writer) OnFormatChanged(format ports.FormatDescription) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.setErr(ErrClosed)
		return
	}

	if w.format != nil {
		w.finishSegmentLocked()
		w.segment++
	}
	f := format.Clone()
	w.format = f
	w.buf.Reset()
	w.frag = nil
	w.haveDTS = false

	if err := w.writeInitLocked(f); err != nil {
		w.setErr(err)
		w.format = nil
	}
}

// OnFormatCleared ends the current segment. The next format starts a new one.
func (w *Writer) OnFormatCleared() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.format == nil {
		return
	}
	w.finishSegmentLocked()
	w.segment++
	w.format = nil
	w.buf.Reset()
	w.frag = nil
	w.haveDTS = false
}

func (w *Writer) writeInitLocked(f *ports.FormatDescription) error {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(Timescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{f.SPS}, [][]byte{f.PPS}, true)
	if err != nil {
		return fmt.Errorf("create avcC: %w", err)
	}
	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(f.Width), uint16(f.Height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(f.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(f.Height << 16)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "avc1", "mp41"})
	if err := ftyp.Encode(&w.buf); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&w.buf); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	return nil
}

// OnSample appends a sample. A key frame closes the running fragment so
// every fragment starts at a sync sample.
func (w *Writer) OnSample(sample ports.CompressedSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.setErr(ErrClosed)
		return
	}
	if w.format == nil {
		w.stats.Dropped++
		w.log.Debug("Dropping sample at %v: %v", sample.PTS, ErrNoFormat)
		return
	}

	if sample.Keyframe && w.frag != nil {
		if err := w.flushFragmentLocked(); err != nil {
			w.setErr(err)
			return
		}
	}
	if w.frag == nil {
		w.seq++
		frag, err := mp4.CreateFragment(w.seq, trackID)
		if err != nil {
			w.setErr(fmt.Errorf("create fragment: %w", err))
			return
		}
		w.frag = frag
	}

	if !w.haveDTS {
		w.firstDTS = sample.DTS
		w.haveDTS = true
	}
	dur := uint32(toTicks(sample.Duration))
	if dur == 0 {
		dur = w.lastDur
	}
	w.lastDur = dur

	flags := mp4.NonSyncSampleFlags
	if sample.Keyframe {
		flags = mp4.SyncSampleFlags
	}
	data := avc.ToAVCC(sample.Data)
	decodeTime := sample.DTS - w.firstDTS
	if decodeTime < 0 {
		decodeTime = 0
	}
	w.frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags:                 flags,
			Dur:                   dur,
			Size:                  uint32(len(data)),
			CompositionTimeOffset: int32(int64(toTicks(sample.PTS)) - int64(toTicks(sample.DTS))),
		},
		DecodeTime: toTicks(decodeTime),
		Data:       data,
	})
	w.stats.Samples++
}

func toTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(math.Round(d.Seconds() * Timescale))
}

func (w *Writer) flushFragmentLocked() error {
	if w.frag == nil {
		return nil
	}
	if err := w.frag.Encode(&w.buf); err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	w.frag = nil
	w.stats.Fragments++
	return nil
}

func (w *Writer) finishSegmentLocked() {
	if err := w.flushFragmentLocked(); err != nil {
		w.setErr(err)
		return
	}
	name := SegmentName(w.base, w.segment)
	data := append([]byte(nil), w.buf.Bytes()...)
	if err := w.store.WriteSegment(name, data); err != nil {
		w.setErr(fmt.Errorf("write segment %s: %w", name, err))
		return
	}
	w.stats.Segments++
	w.stats.Names = append(w.stats.Names, name)
	w.stats.Bytes += int64(len(data))
	w.log.Debug("Wrote segment %s (%d bytes)", name, len(data))
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
	w.log.Warn("mp4 writer error: %v", err)
}

// Close writes the open segment. It returns the first error seen.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.format != nil {
		w.finishSegmentLocked()
	}
	return w.err
}

// Err returns the first error seen by the writer.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Stats returns a snapshot of the writer counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.stats
	st.Names = append([]string(nil), w.stats.Names...)
	return st
}

// Ensure Writer implements ports.Delegate
var _ ports.Delegate = (*Writer)(nil)
