package avc

import (
	"fmt"

	mp4avc "github.com/Eyevinn/mp4ff/avc"

	"github.com/user/h264session/pkg/ports"
)

// CodecAVC1 is the sample entry name of H.264 with out-of-band parameter sets.
const CodecAVC1 = "avc1"

// FormatFromParameterSets builds a format description from an SPS and PPS.
func FormatFromParameterSets(sps, pps []byte) (*ports.FormatDescription, error) {
	if len(sps) < 4 {
		return nil, ErrNoParameterSets
	}
	if len(pps) == 0 {
		return nil, ErrNoParameterSets
	}
	parsed, err := mp4avc.ParseSPSNALUnit(sps, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSPS, err)
	}
	return &ports.FormatDescription{
		Codec:   CodecAVC1,
		Width:   int(parsed.Width),
		Height:  int(parsed.Height),
		Profile: uint8(parsed.Profile),
		Compat:  uint8(parsed.ProfileCompatibility),
		Level:   uint8(parsed.Level),
		SPS:     append([]byte(nil), sps...),
		PPS:     append([]byte(nil), pps...),
	}, nil
}

// FormatFromAnnexB extracts the format of an access unit that carries its
// parameter sets in band. It returns ErrNoParameterSets for access units
// without them.
func FormatFromAnnexB(annexB []byte) (*ports.FormatDescription, error) {
	sps, pps := ParameterSets(annexB)
	if sps == nil || pps == nil {
		return nil, ErrNoParameterSets
	}
	return FormatFromParameterSets(sps, pps)
}
