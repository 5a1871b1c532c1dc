package session

import (
	"time"

	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// TimestampPolicy selects where presentation timestamps come from.
type TimestampPolicy int

const (
	// TimestampSynthetic derives timestamps from the frame counter and a
	// fixed frame duration, ignoring the timestamps callers pass in.
	TimestampSynthetic TimestampPolicy = iota
	// TimestampCaller uses the timestamps callers pass in.
	TimestampCaller
)

// String returns the policy name.
func (p TimestampPolicy) String() string {
	switch p {
	case TimestampSynthetic:
		return "synthetic"
	case TimestampCaller:
		return "caller"
	default:
		return "unknown"
	}
}

// ParseTimestampPolicy parses "synthetic" or "caller".
func ParseTimestampPolicy(s string) (TimestampPolicy, bool) {
	switch s {
	case "synthetic", "":
		return TimestampSynthetic, true
	case "caller":
		return TimestampCaller, true
	default:
		return TimestampSynthetic, false
	}
}

// Defaults for Options.
const (
	DefaultKeyFrameEvery = 60
	DefaultFrameDuration = 100 * time.Second / 3000
	DefaultFlushTimeout  = 2 * time.Second
	DefaultOutputBuffer  = 64
)

// Options configures a Manager.
type Options struct {
	// Settings are the initial encoder settings.
	Settings settings.EncoderSettings

	// KeyFrameEvery forces a key frame on every Nth frame. Zero means
	// DefaultKeyFrameEvery, a negative value disables forcing.
	KeyFrameEvery int

	// FrameDuration is the fixed duration of every frame under
	// TimestampSynthetic, and the fallback duration under TimestampCaller.
	FrameDuration time.Duration

	Timestamps TimestampPolicy

	// FlushTimeout bounds the flush performed when a session is torn down.
	FlushTimeout time.Duration

	// RepeatLastFrameWhenMuted submits the last unmuted frame instead of the
	// incoming one while muted.
	RepeatLastFrameWhenMuted bool

	// OutputBuffer is the capacity of the completion channel.
	OutputBuffer int

	Metrics ports.Metrics
}

// DefaultOptions returns options with default settings.
func DefaultOptions() Options {
	return Options{
		Settings:      settings.Defaults(),
		KeyFrameEvery: DefaultKeyFrameEvery,
		FrameDuration: DefaultFrameDuration,
		FlushTimeout:  DefaultFlushTimeout,
		OutputBuffer:  DefaultOutputBuffer,
	}
}

func (o Options) withDefaults() Options {
	if o.Settings == (settings.EncoderSettings{}) {
		o.Settings = settings.Defaults()
	}
	if o.KeyFrameEvery == 0 {
		o.KeyFrameEvery = DefaultKeyFrameEvery
	}
	if o.FrameDuration <= 0 {
		o.FrameDuration = DefaultFrameDuration
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = DefaultFlushTimeout
	}
	if o.OutputBuffer <= 0 {
		o.OutputBuffer = DefaultOutputBuffer
	}
	if o.Metrics == nil {
		o.Metrics = ports.NopMetrics{}
	}
	return o
}
