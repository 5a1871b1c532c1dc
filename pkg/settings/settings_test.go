package settings

import (
	"errors"
	"testing"
	"time"

	"github.com/user/h264session/pkg/ports"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	if s.Width != 480 || s.Height != 272 {
		t.Errorf("dimensions = %dx%d, want 480x272", s.Width, s.Height)
	}
	if s.Bitrate != 160*1024 {
		t.Errorf("Bitrate = %d, want %d", s.Bitrate, 160*1024)
	}
	if s.ProfileLevel != ProfileMainAutoLevel {
		t.Errorf("ProfileLevel = %s", s.ProfileLevel)
	}
	if s.ScalingMode != ScalingTrim {
		t.Errorf("ScalingMode = %s", s.ScalingMode)
	}
	if !s.DataRateLimits.IsZero() {
		t.Errorf("DataRateLimits = %s, want zero", s.DataRateLimits)
	}
	if s.MaxKeyFrameIntervalDuration != 2.0 {
		t.Errorf("MaxKeyFrameIntervalDuration = %g", s.MaxKeyFrameIntervalDuration)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*EncoderSettings)
	}{
		{"zero width", func(s *EncoderSettings) { s.Width = 0 }},
		{"odd height", func(s *EncoderSettings) { s.Height = 271 }},
		{"zero bitrate", func(s *EncoderSettings) { s.Bitrate = 0 }},
		{"unknown profile", func(s *EncoderSettings) { s.ProfileLevel = "H265_Main" }},
		{"unknown scaling", func(s *EncoderSettings) { s.ScalingMode = "Stretch" }},
		{"negative frame rate", func(s *EncoderSettings) { s.ExpectedFrameRate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.modify(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Validate() = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name  Name
		value any
		check func(EncoderSettings) bool
	}{
		{Width, 640, func(s EncoderSettings) bool { return s.Width == 640 }},
		{Height, "360", func(s EncoderSettings) bool { return s.Height == 360 }},
		{Bitrate, int64(500000), func(s EncoderSettings) bool { return s.Bitrate == 500000 }},
		{Bitrate, float64(300000), func(s EncoderSettings) bool { return s.Bitrate == 300000 }},
		{Muted, true, func(s EncoderSettings) bool { return s.Muted }},
		{EnabledHardwareEncoder, "false", func(s EncoderSettings) bool { return !s.EnabledHardwareEncoder }},
		{ProfileLevelName, "H264_High_AutoLevel", func(s EncoderSettings) bool { return s.ProfileLevel == ProfileHighAutoLevel }},
		{ProfileLevelName, ProfileBaseline31, func(s EncoderSettings) bool { return s.ProfileLevel == ProfileBaseline31 }},
		{ScalingModeName, ScalingLetterbox, func(s EncoderSettings) bool { return s.ScalingMode == ScalingLetterbox }},
		{MaxKeyFrameIntervalDuration, 4, func(s EncoderSettings) bool { return s.MaxKeyFrameIntervalDuration == 4 }},
		{ExpectedFrameRate, "60", func(s EncoderSettings) bool { return s.ExpectedFrameRate == 60 }},
		{DataRateLimitsName, []int{100000, 1}, func(s EncoderSettings) bool {
			return s.DataRateLimits == DataRateLimits{Bytes: 100000, Window: time.Second}
		}},
		{DataRateLimitsName, "50000/0.5", func(s EncoderSettings) bool {
			return s.DataRateLimits == DataRateLimits{Bytes: 50000, Window: 500 * time.Millisecond}
		}},
		{DataRateLimitsName, []any{0, 0}, func(s EncoderSettings) bool { return s.DataRateLimits.IsZero() }},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			s := Defaults()
			if err := s.Set(tt.name, tt.value); err != nil {
				t.Fatalf("Set(%s, %v) = %v", tt.name, tt.value, err)
			}
			if !tt.check(s) {
				t.Errorf("Set(%s, %v) produced %+v", tt.name, tt.value, s)
			}
		})
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  Name
		value any
	}{
		{Width, 0},
		{Width, "wide"},
		{Height, 1.5},
		{Muted, 1},
		{ProfileLevelName, "H264_Extended"},
		{ScalingModeName, 3},
		{DataRateLimitsName, []int{1, 2, 3}},
		{DataRateLimitsName, "100"},
		{MaxKeyFrameInterval, -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			s := Defaults()
			before := s
			err := s.Set(tt.name, tt.value)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Set(%s, %v) = %v, want ErrInvalidValue", tt.name, tt.value, err)
			}
			if s != before {
				t.Errorf("settings modified on error: %+v", s)
			}
		})
	}
}

func TestSetUnknown(t *testing.T) {
	s := Defaults()
	if err := s.Set("gamma", 2.2); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Set(gamma) = %v, want ErrUnknownSetting", err)
	}
}

func TestGet(t *testing.T) {
	s := Defaults()
	for _, n := range Names() {
		v, ok := s.Get(n)
		if !ok {
			t.Errorf("Get(%s) not found", n)
			continue
		}
		// Every value read back must be accepted by Set.
		c := Defaults()
		if err := c.Set(n, v); err != nil {
			t.Errorf("Set(%s, Get()) = %v", n, err)
		}
	}
	if _, ok := s.Get("gamma"); ok {
		t.Error("Get(gamma) succeeded")
	}
	if v, _ := s.Get(Width); v != DefaultWidth {
		t.Errorf("Get(width) = %v, want %d", v, DefaultWidth)
	}
}

func TestLookup(t *testing.T) {
	if n, ok := Lookup("MAXKEYFRAMEINTERVALDURATION"); !ok || n != MaxKeyFrameIntervalDuration {
		t.Errorf("Lookup() = %q, %v", n, ok)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) succeeded")
	}
	if got := len(Names()); got != 11 {
		t.Errorf("len(Names()) = %d, want 11", got)
	}
}

func TestClassify(t *testing.T) {
	limited := Defaults()
	limited.DataRateLimits = DataRateLimits{Bytes: 1000, Window: time.Second}

	tests := []struct {
		name Name
		s    EncoderSettings
		want Class
	}{
		{Width, Defaults(), ClassRebuild},
		{Height, Defaults(), ClassRebuild},
		{ProfileLevelName, Defaults(), ClassRebuild},
		{EnabledHardwareEncoder, Defaults(), ClassRebuild},
		{ScalingModeName, Defaults(), ClassRebuild},
		{Bitrate, Defaults(), ClassLive},
		{MaxKeyFrameIntervalDuration, Defaults(), ClassLive},
		{ExpectedFrameRate, Defaults(), ClassLive},
		{DataRateLimitsName, Defaults(), ClassRebuild},
		{DataRateLimitsName, limited, ClassLive},
		{Muted, Defaults(), ClassManager},
	}
	for _, tt := range tests {
		got, err := Classify(tt.name, tt.s)
		if err != nil {
			t.Fatalf("Classify(%s) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestAttributes(t *testing.T) {
	s := Defaults()
	src := s.SourceBufferAttributes()
	if src.Width != 480 || src.Height != 272 || src.PixelFormat != PixelFormatBGRA {
		t.Errorf("SourceBufferAttributes() = %+v", src)
	}
	pool := s.PixelBufferPoolAttributes()
	if pool.BytesPerRowAlignment != 480*4 {
		t.Errorf("BytesPerRowAlignment = %d", pool.BytesPerRowAlignment)
	}
	if pool.MinimumBufferCount != 12 {
		t.Errorf("MinimumBufferCount = %d", pool.MinimumBufferCount)
	}
}

func TestSessionProperties(t *testing.T) {
	s := Defaults()
	props := s.SessionProperties()

	got := make(map[ports.PropertyKey]any)
	for _, p := range props {
		got[p.Key] = p.Value
	}
	if got[ports.PropertyRealTime] != true {
		t.Error("RealTime not set")
	}
	if got[ports.PropertyH264EntropyMode] != string(EntropyCABAC) {
		t.Errorf("entropy = %v, want CABAC", got[ports.PropertyH264EntropyMode])
	}
	if got[ports.PropertyAverageBitRate] != 160*1024 {
		t.Errorf("bitrate = %v", got[ports.PropertyAverageBitRate])
	}
	if _, ok := got[ports.PropertyDataRateLimits]; ok {
		t.Error("DataRateLimits applied with default limits")
	}

	s.ProfileLevel = ProfileBaselineAutoLevel
	s.DataRateLimits = DataRateLimits{Bytes: 1000, Window: time.Second}
	got = make(map[ports.PropertyKey]any)
	for _, p := range s.SessionProperties() {
		got[p.Key] = p.Value
	}
	if got[ports.PropertyH264EntropyMode] != string(EntropyCAVLC) {
		t.Errorf("baseline entropy = %v, want CAVLC", got[ports.PropertyH264EntropyMode])
	}
	if _, ok := got[ports.PropertyDataRateLimits]; !ok {
		t.Error("DataRateLimits missing")
	}
}
