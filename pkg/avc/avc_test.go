package avc

import (
	"bytes"
	"errors"
	"testing"

	mp4avc "github.com/Eyevinn/mp4ff/avc"
)

func TestBitWriterExpGolomb(t *testing.T) {
	var w bitWriter
	w.ue(0) // 1
	w.ue(1) // 010
	w.ue(2) // 011
	w.ue(3) // 00100
	got := w.trailing()
	// 1 010 011 0 | 0100 1 000
	want := []byte{0xA6, 0x48}
	if !bytes.Equal(got, want) {
		t.Errorf("bits = %x, want %x", got, want)
	}
}

func TestBitWriterSignedExpGolomb(t *testing.T) {
	var w bitWriter
	w.se(1)  // ue(1) 010
	w.se(-1) // ue(2) 011
	w.se(0)  // ue(0) 1
	got := w.trailing()
	// 010 011 1 1 (trailing)
	if !bytes.Equal(got, []byte{0x4F}) {
		t.Errorf("bits = %x, want 4f", got)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte{0, 0, 1}, []byte{0, 0, 3, 1}},
		{[]byte{0, 0, 0, 0}, []byte{0, 0, 3, 0, 0}},
		{[]byte{0, 0, 4}, []byte{0, 0, 4}},
		{[]byte{1, 0, 0, 3}, []byte{1, 0, 0, 3, 3}},
	}
	for _, tt := range tests {
		if got := escape(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("escape(%x) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestBuildSPSRoundTrip(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{480, 272},
		{640, 480},
		{640, 360},
		{1280, 720},
		{322, 242},
	}
	for _, tt := range tests {
		sps, err := BuildSPS(tt.width, tt.height, LevelDefault)
		if err != nil {
			t.Fatalf("BuildSPS(%d, %d) error = %v", tt.width, tt.height, err)
		}
		if NALType(sps) != mp4avc.NALU_SPS {
			t.Fatalf("NAL type = %v", NALType(sps))
		}
		f, err := FormatFromParameterSets(sps, BuildPPS())
		if err != nil {
			t.Fatalf("FormatFromParameterSets() error = %v", err)
		}
		if f.Width != tt.width || f.Height != tt.height {
			t.Errorf("parsed %dx%d, want %dx%d", f.Width, f.Height, tt.width, tt.height)
		}
		if f.Profile != ProfileBaseline || f.Level != LevelDefault {
			t.Errorf("profile/level = %d/%d", f.Profile, f.Level)
		}
		if f.CodecString() != "avc1.42c01e" {
			t.Errorf("CodecString() = %s", f.CodecString())
		}
	}
}

func TestBuildSPSRejectsOddDimensions(t *testing.T) {
	if _, err := BuildSPS(481, 272, LevelDefault); err == nil {
		t.Error("BuildSPS(481, 272) succeeded")
	}
}

func accessUnit(t *testing.T, keyframe bool, payload byte) []byte {
	t.Helper()
	if !keyframe {
		return JoinAnnexB(AUD(false), OpaqueSlice(false, []byte{payload}))
	}
	sps, err := BuildSPS(480, 272, LevelDefault)
	if err != nil {
		t.Fatal(err)
	}
	return JoinAnnexB(AUD(true), sps, BuildPPS(), OpaqueSlice(true, []byte{payload}))
}

func TestFormatFromAnnexB(t *testing.T) {
	f, err := FormatFromAnnexB(accessUnit(t, true, 1))
	if err != nil {
		t.Fatalf("FormatFromAnnexB() error = %v", err)
	}
	if f.Codec != CodecAVC1 || f.Width != 480 || f.Height != 272 {
		t.Errorf("format = %+v", f)
	}
	if _, err := FormatFromAnnexB(accessUnit(t, false, 1)); !errors.Is(err, ErrNoParameterSets) {
		t.Errorf("non-keyframe error = %v, want ErrNoParameterSets", err)
	}
}

func TestIsKeyframe(t *testing.T) {
	if !IsKeyframe(accessUnit(t, true, 7)) {
		t.Error("IDR access unit not detected")
	}
	if IsKeyframe(accessUnit(t, false, 7)) {
		t.Error("non-IDR access unit detected as keyframe")
	}
}

func TestToAVCC(t *testing.T) {
	avcc := ToAVCC(accessUnit(t, true, 9))
	slice := OpaqueSlice(true, []byte{9})
	want := append([]byte{0, 0, 0, byte(len(slice))}, slice...)
	if !bytes.Equal(avcc, want) {
		t.Errorf("ToAVCC() = %x, want %x", avcc, want)
	}
}

func TestFromAVCC(t *testing.T) {
	slice := OpaqueSlice(false, []byte{4, 5})
	avcc := append([]byte{0, 0, 0, byte(len(slice))}, slice...)
	if got := FromAVCC(avcc); !bytes.Equal(got, JoinAnnexB(slice)) {
		t.Errorf("FromAVCC() = %x, want %x", got, JoinAnnexB(slice))
	}

	truncated := append([]byte(nil), avcc[:len(avcc)-1]...)
	if got := FromAVCC(truncated); len(got) != 0 {
		t.Errorf("expected truncated unit to be dropped, got %x", got)
	}
}

func TestAccessUnitSplitter(t *testing.T) {
	units := [][]byte{
		accessUnit(t, true, 1),
		accessUnit(t, false, 2),
		accessUnit(t, false, 3),
	}
	var stream []byte
	for _, u := range units {
		stream = append(stream, u...)
	}

	var s AccessUnitSplitter
	var got [][]byte
	// Feed in small chunks so start codes straddle writes.
	for i := 0; i < len(stream); i += 5 {
		end := i + 5
		if end > len(stream) {
			end = len(stream)
		}
		got = append(got, s.Write(stream[i:end])...)
	}
	if tail := s.Flush(); tail != nil {
		got = append(got, tail)
	}

	if len(got) != len(units) {
		t.Fatalf("got %d access units, want %d", len(got), len(units))
	}
	for i := range units {
		if !bytes.Equal(got[i], units[i]) {
			t.Errorf("unit %d = %x, want %x", i, got[i], units[i])
		}
	}
}

func TestAccessUnitSplitterSkipsLeadingGarbage(t *testing.T) {
	var s AccessUnitSplitter
	au := accessUnit(t, false, 4)
	got := s.Write(append([]byte{0xFF, 0xFE}, au...))
	if len(got) != 0 {
		t.Fatalf("Write() returned %d units before the next delimiter", len(got))
	}
	if tail := s.Flush(); !bytes.Equal(tail, au) {
		t.Errorf("Flush() = %x, want %x", tail, au)
	}
	if tail := s.Flush(); tail != nil {
		t.Errorf("second Flush() = %x, want nil", tail)
	}
}
