// Package settings holds the user-facing encoder settings and decides how
// each change reaches a running compression session.
package settings

import (
	"fmt"
	"time"
)

// ProfileLevel is an H.264 profile/level identifier.
type ProfileLevel string

const (
	ProfileBaselineAutoLevel ProfileLevel = "H264_Baseline_AutoLevel"
	ProfileBaseline31        ProfileLevel = "H264_Baseline_3_1"
	ProfileMainAutoLevel     ProfileLevel = "H264_Main_AutoLevel"
	ProfileMain31            ProfileLevel = "H264_Main_3_1"
	ProfileMain41            ProfileLevel = "H264_Main_4_1"
	ProfileHighAutoLevel     ProfileLevel = "H264_High_AutoLevel"
	ProfileHigh41            ProfileLevel = "H264_High_4_1"
)

var knownProfiles = map[ProfileLevel]bool{
	ProfileBaselineAutoLevel: true,
	ProfileBaseline31:        true,
	ProfileMainAutoLevel:     true,
	ProfileMain31:            true,
	ProfileMain41:            true,
	ProfileHighAutoLevel:     true,
	ProfileHigh41:            true,
}

// IsBaseline reports whether the profile is a Baseline profile.
func (p ProfileLevel) IsBaseline() bool {
	return p == ProfileBaselineAutoLevel || p == ProfileBaseline31
}

// EntropyMode returns the entropy coder for the profile. Baseline has no CABAC.
func (p ProfileLevel) EntropyMode() EntropyMode {
	if p.IsBaseline() {
		return EntropyCAVLC
	}
	return EntropyCABAC
}

// EntropyMode is the H.264 entropy coding mode.
type EntropyMode string

const (
	EntropyCAVLC EntropyMode = "CAVLC"
	EntropyCABAC EntropyMode = "CABAC"
)

// ScalingMode is the pre-encode scaling policy applied when a source image
// does not match the session dimensions.
type ScalingMode string

const (
	ScalingNormal                    ScalingMode = "Normal"
	ScalingLetterbox                 ScalingMode = "Letterbox"
	ScalingTrim                      ScalingMode = "Trim"
	ScalingCropSourceToCleanAperture ScalingMode = "CropSourceToCleanAperture"
)

var knownScalingModes = map[ScalingMode]bool{
	ScalingNormal:                    true,
	ScalingLetterbox:                 true,
	ScalingTrim:                      true,
	ScalingCropSourceToCleanAperture: true,
}

// DataRateLimits caps the data rate: at most Bytes in every Window.
// The zero value means no limit.
type DataRateLimits struct {
	Bytes  int
	Window time.Duration
}

// IsZero reports whether no limit is set.
func (d DataRateLimits) IsZero() bool {
	return d.Bytes == 0 && d.Window == 0
}

// String formats the limits as "bytes/seconds".
func (d DataRateLimits) String() string {
	return fmt.Sprintf("%d/%g", d.Bytes, d.Window.Seconds())
}

// EncoderSettings is the complete user-facing encoder configuration.
type EncoderSettings struct {
	Width                       int
	Height                      int
	Bitrate                     int
	ProfileLevel                ProfileLevel
	DataRateLimits              DataRateLimits
	EnabledHardwareEncoder      bool
	MaxKeyFrameInterval         int
	MaxKeyFrameIntervalDuration float64
	ExpectedFrameRate           float64
	ScalingMode                 ScalingMode
	Muted                       bool
}

// Default values.
const (
	DefaultWidth                       = 480
	DefaultHeight                      = 272
	DefaultBitrate                     = 160 * 1024
	DefaultMaxKeyFrameInterval         = 60
	DefaultMaxKeyFrameIntervalDuration = 2.0
	DefaultExpectedFrameRate           = 30.0
	DefaultProfileLevel                = ProfileMainAutoLevel
	DefaultScalingMode                 = ScalingTrim
)

// Defaults returns the default encoder settings.
func Defaults() EncoderSettings {
	return EncoderSettings{
		Width:                       DefaultWidth,
		Height:                      DefaultHeight,
		Bitrate:                     DefaultBitrate,
		ProfileLevel:                DefaultProfileLevel,
		EnabledHardwareEncoder:      true,
		MaxKeyFrameInterval:         DefaultMaxKeyFrameInterval,
		MaxKeyFrameIntervalDuration: DefaultMaxKeyFrameIntervalDuration,
		ExpectedFrameRate:           DefaultExpectedFrameRate,
		ScalingMode:                 DefaultScalingMode,
	}
}

// Validate checks that the settings can configure a session.
func (s EncoderSettings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidValue, s.Width, s.Height)
	}
	if s.Width%2 != 0 || s.Height%2 != 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be even", ErrInvalidValue, s.Width, s.Height)
	}
	if s.Bitrate <= 0 {
		return fmt.Errorf("%w: bitrate %d", ErrInvalidValue, s.Bitrate)
	}
	if !knownProfiles[s.ProfileLevel] {
		return fmt.Errorf("%w: profile level %q", ErrInvalidValue, s.ProfileLevel)
	}
	if !knownScalingModes[s.ScalingMode] {
		return fmt.Errorf("%w: scaling mode %q", ErrInvalidValue, s.ScalingMode)
	}
	if s.MaxKeyFrameInterval < 0 || s.MaxKeyFrameIntervalDuration < 0 {
		return fmt.Errorf("%w: negative key frame interval", ErrInvalidValue)
	}
	if s.ExpectedFrameRate < 0 {
		return fmt.Errorf("%w: expected frame rate %g", ErrInvalidValue, s.ExpectedFrameRate)
	}
	if s.DataRateLimits.Bytes < 0 || s.DataRateLimits.Window < 0 {
		return fmt.Errorf("%w: data rate limits %s", ErrInvalidValue, s.DataRateLimits)
	}
	return nil
}
