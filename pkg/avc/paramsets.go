package avc

import "fmt"

// Baseline profile constants used by generated parameter sets.
const (
	ProfileBaseline = 66
	LevelDefault    = 30
)

// NAL header bytes.
const (
	headerSPS      = 0x67
	headerPPS      = 0x68
	headerIDR      = 0x65
	headerNonIDR   = 0x41
	headerAUD      = 0x09
	audPrimaryPicI = 0x10
	audPrimaryPicP = 0x30
)

// BuildSPS writes a Constrained Baseline SPS for a 4:2:0 progressive stream
// of the given dimensions. Dimensions must be even.
func BuildSPS(width, height int, level uint8) ([]byte, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("avc: invalid dimensions %dx%d", width, height)
	}
	mbW := (width + 15) / 16
	mbH := (height + 15) / 16
	cropRight := (mbW*16 - width) / 2
	cropBottom := (mbH*16 - height) / 2

	var w bitWriter
	w.u(8, ProfileBaseline)
	w.u(8, 0xC0) // constraint_set0 and constraint_set1
	w.u(8, uint32(level))
	w.ue(0) // seq_parameter_set_id
	w.ue(0) // log2_max_frame_num_minus4
	w.ue(2) // pic_order_cnt_type
	w.ue(1) // max_num_ref_frames
	w.flag(false)
	w.ue(uint32(mbW - 1))
	w.ue(uint32(mbH - 1))
	w.flag(true) // frame_mbs_only_flag
	w.flag(true) // direct_8x8_inference_flag
	cropping := cropRight != 0 || cropBottom != 0
	w.flag(cropping)
	if cropping {
		w.ue(0)
		w.ue(uint32(cropRight))
		w.ue(0)
		w.ue(uint32(cropBottom))
	}
	w.flag(false) // vui_parameters_present_flag

	return append([]byte{headerSPS}, escape(w.trailing())...), nil
}

// BuildPPS writes a CAVLC PPS referencing SPS 0.
func BuildPPS() []byte {
	var w bitWriter
	w.ue(0) // pic_parameter_set_id
	w.ue(0) // seq_parameter_set_id
	w.flag(false)
	w.flag(false)
	w.ue(0) // num_slice_groups_minus1
	w.ue(0)
	w.ue(0)
	w.flag(false)
	w.u(2, 0)
	w.se(0) // pic_init_qp_minus26
	w.se(0)
	w.se(0)
	w.flag(true) // deblocking_filter_control_present_flag
	w.flag(false)
	w.flag(false)
	return append([]byte{headerPPS}, escape(w.trailing())...)
}

// AUD returns an access unit delimiter NAL unit.
func AUD(keyframe bool) []byte {
	if keyframe {
		return []byte{headerAUD, audPrimaryPicI}
	}
	return []byte{headerAUD, audPrimaryPicP}
}

// OpaqueSlice wraps payload in a slice NAL unit of the right type. The
// payload is escaped and terminated so the result is a well-formed NAL unit.
func OpaqueSlice(keyframe bool, payload []byte) []byte {
	hdr := byte(headerNonIDR)
	if keyframe {
		hdr = headerIDR
	}
	body := append(append([]byte(nil), payload...), 0x80)
	return append([]byte{hdr}, escape(body)...)
}
