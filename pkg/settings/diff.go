package settings

import "github.com/user/h264session/pkg/ports"

// LiveUpdate is a property change applied to an existing session.
type LiveUpdate struct {
	Name  Name
	Key   ports.PropertyKey
	Value any
}

// Plan is the action list for moving a session from one set of settings to
// another.
type Plan struct {
	// Rebuild means the session must be recreated. Live is empty then,
	// because a new session receives the full property batch.
	Rebuild bool

	// RebuildCauses lists the settings that forced the rebuild.
	RebuildCauses []Name

	// Live lists property updates in a stable order.
	Live []LiveUpdate

	// Changed lists every setting whose value differs.
	Changed []Name
}

// Empty reports whether the plan has nothing to do for a session.
func (p Plan) Empty() bool {
	return !p.Rebuild && len(p.Live) == 0
}

// Diff compares two settings and returns the actions needed to move an
// existing session from prev to next.
func Diff(prev, next EncoderSettings) Plan {
	var plan Plan

	rebuild := func(n Name) {
		plan.Changed = append(plan.Changed, n)
		plan.Rebuild = true
		plan.RebuildCauses = append(plan.RebuildCauses, n)
	}
	live := func(n Name, key ports.PropertyKey, v any) {
		plan.Changed = append(plan.Changed, n)
		plan.Live = append(plan.Live, LiveUpdate{Name: n, Key: key, Value: v})
	}

	if prev.Width != next.Width {
		rebuild(Width)
	}
	if prev.Height != next.Height {
		rebuild(Height)
	}
	if prev.ProfileLevel != next.ProfileLevel {
		rebuild(ProfileLevelName)
	}
	if prev.EnabledHardwareEncoder != next.EnabledHardwareEncoder {
		rebuild(EnabledHardwareEncoder)
	}
	if prev.ScalingMode != next.ScalingMode {
		rebuild(ScalingModeName)
	}
	if prev.DataRateLimits != next.DataRateLimits {
		if next.DataRateLimits.IsZero() {
			rebuild(DataRateLimitsName)
		} else {
			live(DataRateLimitsName, ports.PropertyDataRateLimits, dataRateValue(next.DataRateLimits))
		}
	}
	if prev.Bitrate != next.Bitrate {
		live(Bitrate, ports.PropertyAverageBitRate, next.Bitrate)
	}
	if prev.MaxKeyFrameInterval != next.MaxKeyFrameInterval {
		live(MaxKeyFrameInterval, ports.PropertyMaxKeyFrameInterval, next.MaxKeyFrameInterval)
	}
	if prev.MaxKeyFrameIntervalDuration != next.MaxKeyFrameIntervalDuration {
		live(MaxKeyFrameIntervalDuration, ports.PropertyMaxKeyFrameIntervalDuration, next.MaxKeyFrameIntervalDuration)
	}
	if prev.ExpectedFrameRate != next.ExpectedFrameRate {
		live(ExpectedFrameRate, ports.PropertyExpectedFrameRate, next.ExpectedFrameRate)
	}
	if prev.Muted != next.Muted {
		plan.Changed = append(plan.Changed, Muted)
	}

	if plan.Rebuild {
		plan.Live = nil
	}
	return plan
}

// SessionProperties returns the one-time property batch applied to a newly
// created session, in application order.
func (s EncoderSettings) SessionProperties() []ports.PropertyValue {
	props := []ports.PropertyValue{
		{Key: ports.PropertyRealTime, Value: true},
		{Key: ports.PropertyAllowFrameReordering, Value: false},
		{Key: ports.PropertyProfileLevel, Value: string(s.ProfileLevel)},
		{Key: ports.PropertyH264EntropyMode, Value: string(s.ProfileLevel.EntropyMode())},
		{Key: ports.PropertyScalingMode, Value: string(s.ScalingMode)},
		{Key: ports.PropertyMaxKeyFrameInterval, Value: s.MaxKeyFrameInterval},
		{Key: ports.PropertyMaxKeyFrameIntervalDuration, Value: s.MaxKeyFrameIntervalDuration},
		{Key: ports.PropertyAverageBitRate, Value: s.Bitrate},
	}
	if s.ExpectedFrameRate > 0 {
		props = append(props, ports.PropertyValue{Key: ports.PropertyExpectedFrameRate, Value: s.ExpectedFrameRate})
	}
	if !s.DataRateLimits.IsZero() {
		props = append(props, ports.PropertyValue{Key: ports.PropertyDataRateLimits, Value: dataRateValue(s.DataRateLimits)})
	}
	return props
}

// dataRateValue encodes limits as the [bytes, seconds] pair sessions accept.
func dataRateValue(d DataRateLimits) []float64 {
	return []float64{float64(d.Bytes), d.Window.Seconds()}
}
