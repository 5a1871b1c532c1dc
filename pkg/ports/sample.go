package ports

import (
	"bytes"
	"fmt"
	"time"
)

// CompressedSample is one compressed access unit in Annex-B form.
type CompressedSample struct {
	Data     []byte
	PTS      time.Duration
	DTS      time.Duration
	Duration time.Duration
	Keyframe bool

	// Format is set when the service knows the format of this sample.
	// A nil Format means the manager derives it from in-band parameter sets.
	Format *FormatDescription
}

// FormatDescription describes the stream format of compressed samples.
type FormatDescription struct {
	Codec   string
	Width   int
	Height  int
	Profile uint8
	Compat  uint8
	Level   uint8
	SPS     []byte
	PPS     []byte
}

// Equal reports whether two descriptions describe the same format.
func (f *FormatDescription) Equal(o *FormatDescription) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Codec == o.Codec &&
		f.Width == o.Width &&
		f.Height == o.Height &&
		bytes.Equal(f.SPS, o.SPS) &&
		bytes.Equal(f.PPS, o.PPS)
}

// CodecString returns the RFC 6381 codec string, e.g. "avc1.4d401e".
func (f *FormatDescription) CodecString() string {
	return fmt.Sprintf("%s.%02x%02x%02x", f.Codec, f.Profile, f.Compat, f.Level)
}

// Clone returns a deep copy.
func (f *FormatDescription) Clone() *FormatDescription {
	if f == nil {
		return nil
	}
	c := *f
	c.SPS = append([]byte(nil), f.SPS...)
	c.PPS = append([]byte(nil), f.PPS...)
	return &c
}
