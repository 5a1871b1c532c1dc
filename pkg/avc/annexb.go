// Package avc handles H.264 Annex-B byte streams: NAL unit scanning,
// access unit splitting, parameter sets and format descriptions.
package avc

import (
	"encoding/binary"

	mp4avc "github.com/Eyevinn/mp4ff/avc"
)

// StartCode is the 4-byte Annex-B start code.
var StartCode = []byte{0, 0, 0, 1}

// NALUnits returns the NAL units of an Annex-B buffer without start codes.
func NALUnits(annexB []byte) [][]byte {
	return mp4avc.ExtractNalusFromByteStream(annexB)
}

// NALType returns the type of a NAL unit.
func NALType(nalu []byte) mp4avc.NaluType {
	if len(nalu) == 0 {
		return 0
	}
	return mp4avc.GetNaluType(nalu[0])
}

// IsKeyframe reports whether an Annex-B access unit contains an IDR slice.
func IsKeyframe(annexB []byte) bool {
	for _, n := range NALUnits(annexB) {
		if NALType(n) == mp4avc.NALU_IDR {
			return true
		}
	}
	return false
}

// JoinAnnexB concatenates NAL units with start codes.
func JoinAnnexB(nalus ...[]byte) []byte {
	size := 0
	for _, n := range nalus {
		size += len(StartCode) + len(n)
	}
	out := make([]byte, 0, size)
	for _, n := range nalus {
		out = append(out, StartCode...)
		out = append(out, n...)
	}
	return out
}

// ToAVCC converts an Annex-B access unit into length-prefixed form, dropping
// parameter sets and access unit delimiters which live out of band in MP4.
func ToAVCC(annexB []byte) []byte {
	var out []byte
	for _, n := range NALUnits(annexB) {
		switch NALType(n) {
		case mp4avc.NALU_SPS, mp4avc.NALU_PPS, mp4avc.NALU_AUD:
			continue
		}
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(len(n)))
		out = append(out, hdr[:]...)
		out = append(out, n...)
	}
	return out
}

// ParameterSets returns the first SPS and PPS found in an Annex-B buffer.
func ParameterSets(annexB []byte) (sps, pps []byte) {
	for _, n := range NALUnits(annexB) {
		switch NALType(n) {
		case mp4avc.NALU_SPS:
			if sps == nil {
				sps = n
			}
		case mp4avc.NALU_PPS:
			if pps == nil {
				pps = n
			}
		}
	}
	return sps, pps
}

// FromAVCC converts a length-prefixed sample with 4-byte lengths into
// Annex-B. A truncated trailing NAL unit is dropped.
func FromAVCC(avcc []byte) []byte {
	out := make([]byte, 0, len(avcc))
	for off := 0; off+4 <= len(avcc); {
		n := int(binary.BigEndian.Uint32(avcc[off:]))
		off += 4
		if n > len(avcc)-off {
			break
		}
		out = append(out, StartCode...)
		out = append(out, avcc[off:off+n]...)
		off += n
	}
	return out
}
