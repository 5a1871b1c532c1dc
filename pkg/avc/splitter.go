package avc

import (
	"bytes"

	mp4avc "github.com/Eyevinn/mp4ff/avc"
)

// AccessUnitSplitter cuts a continuous Annex-B byte stream into access units.
// The stream must start every access unit with an access unit delimiter,
// which is what x264 emits with aud=1.
type AccessUnitSplitter struct {
	buf []byte
}

// Write appends stream bytes and returns every access unit completed by them.
func (s *AccessUnitSplitter) Write(p []byte) [][]byte {
	s.buf = append(s.buf, p...)

	var units [][]byte
	for {
		first := nextAUD(s.buf, 0)
		if first < 0 {
			return units
		}
		if first > 0 {
			// Leading bytes before the first delimiter belong to no unit.
			s.buf = s.buf[first:]
		}
		second := nextAUD(s.buf, 3)
		if second < 0 {
			return units
		}
		unit := make([]byte, second)
		copy(unit, s.buf[:second])
		units = append(units, trimTrailingZeros(unit))
		s.buf = s.buf[second:]
	}
}

// Flush returns the buffered tail as a final access unit, if any.
func (s *AccessUnitSplitter) Flush() []byte {
	if nextAUD(s.buf, 0) != 0 {
		s.buf = nil
		return nil
	}
	unit := trimTrailingZeros(s.buf)
	s.buf = nil
	if len(NALUnits(unit)) <= 1 {
		return nil
	}
	return unit
}

// nextAUD returns the offset of the start code of the first AUD NAL unit at or
// after from, or -1.
func nextAUD(b []byte, from int) int {
	i := from
	for i+3 < len(b) {
		j := bytes.Index(b[i:], []byte{0, 0, 1})
		if j < 0 {
			return -1
		}
		pos := i + j
		if pos+3 >= len(b) {
			return -1
		}
		if mp4avc.GetNaluType(b[pos+3]) == mp4avc.NALU_AUD {
			if pos > 0 && b[pos-1] == 0 && pos-1 >= from {
				return pos - 1
			}
			return pos
		}
		i = pos + 3
	}
	return -1
}

func trimTrailingZeros(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
