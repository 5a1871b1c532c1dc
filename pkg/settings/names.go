package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Name is a recognized setting name.
type Name string

const (
	Muted                       Name = "muted"
	Width                       Name = "width"
	Height                      Name = "height"
	Bitrate                     Name = "bitrate"
	ProfileLevelName            Name = "profileLevel"
	DataRateLimitsName          Name = "dataRateLimits"
	EnabledHardwareEncoder      Name = "enabledHardwareEncoder"
	MaxKeyFrameInterval         Name = "maxKeyFrameInterval"
	MaxKeyFrameIntervalDuration Name = "maxKeyFrameIntervalDuration"
	ExpectedFrameRate           Name = "expectedFrameRate"
	ScalingModeName             Name = "scalingMode"
)

// Class says how a setting change reaches an existing session.
type Class int

const (
	// ClassRebuild changes invalidate the session; a new one is created on
	// the next frame.
	ClassRebuild Class = iota
	// ClassLive changes are applied to the existing session as a property.
	ClassLive
	// ClassManager changes only affect the manager, never the session.
	ClassManager
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassRebuild:
		return "rebuild"
	case ClassLive:
		return "live"
	case ClassManager:
		return "manager"
	default:
		return "unknown"
	}
}

var classes = map[Name]Class{
	Muted:                       ClassManager,
	Width:                       ClassRebuild,
	Height:                      ClassRebuild,
	Bitrate:                     ClassLive,
	ProfileLevelName:            ClassRebuild,
	DataRateLimitsName:          ClassLive,
	EnabledHardwareEncoder:      ClassRebuild,
	MaxKeyFrameInterval:         ClassLive,
	MaxKeyFrameIntervalDuration: ClassLive,
	ExpectedFrameRate:           ClassLive,
	ScalingModeName:             ClassRebuild,
}

// Names returns all recognized setting names in sorted order.
func Names() []Name {
	names := make([]Name, 0, len(classes))
	for n := range classes {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Lookup resolves a setting name. Matching ignores case.
func Lookup(name string) (Name, bool) {
	for n := range classes {
		if strings.EqualFold(string(n), name) {
			return n, true
		}
	}
	return "", false
}

// Classify returns the class of a change of name to s's value.
// Resetting data rate limits to the default cannot be expressed as a
// session property, so it requires a rebuild.
func Classify(name Name, s EncoderSettings) (Class, error) {
	c, ok := classes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	if name == DataRateLimitsName && s.DataRateLimits.IsZero() {
		return ClassRebuild, nil
	}
	return c, nil
}

// Set stores value into the named field of s. Values may be typed Go values
// or strings as they appear on a command line.
func (s *EncoderSettings) Set(name Name, value any) error {
	c := *s
	var err error
	switch name {
	case Muted:
		c.Muted, err = toBool(value)
	case Width:
		c.Width, err = toPositiveInt(value)
	case Height:
		c.Height, err = toPositiveInt(value)
	case Bitrate:
		c.Bitrate, err = toPositiveInt(value)
	case ProfileLevelName:
		var str string
		str, err = toString(value)
		if err == nil {
			p := ProfileLevel(str)
			if !knownProfiles[p] {
				err = fmt.Errorf("unknown profile level %q", str)
			}
			c.ProfileLevel = p
		}
	case DataRateLimitsName:
		c.DataRateLimits, err = toDataRateLimits(value)
	case EnabledHardwareEncoder:
		c.EnabledHardwareEncoder, err = toBool(value)
	case MaxKeyFrameInterval:
		c.MaxKeyFrameInterval, err = toInt(value)
		if err == nil && c.MaxKeyFrameInterval < 0 {
			err = fmt.Errorf("negative interval %d", c.MaxKeyFrameInterval)
		}
	case MaxKeyFrameIntervalDuration:
		c.MaxKeyFrameIntervalDuration, err = toFloat(value)
		if err == nil && c.MaxKeyFrameIntervalDuration < 0 {
			err = fmt.Errorf("negative duration %g", c.MaxKeyFrameIntervalDuration)
		}
	case ExpectedFrameRate:
		c.ExpectedFrameRate, err = toFloat(value)
		if err == nil && c.ExpectedFrameRate < 0 {
			err = fmt.Errorf("negative frame rate %g", c.ExpectedFrameRate)
		}
	case ScalingModeName:
		var str string
		str, err = toString(value)
		if err == nil {
			m := ScalingMode(str)
			if !knownScalingModes[m] {
				err = fmt.Errorf("unknown scaling mode %q", str)
			}
			c.ScalingMode = m
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}
	*s = c
	return nil
}

// Get returns the value of the named field of s.
func (s EncoderSettings) Get(name Name) (any, bool) {
	switch name {
	case Muted:
		return s.Muted, true
	case Width:
		return s.Width, true
	case Height:
		return s.Height, true
	case Bitrate:
		return s.Bitrate, true
	case ProfileLevelName:
		return s.ProfileLevel, true
	case DataRateLimitsName:
		return s.DataRateLimits, true
	case EnabledHardwareEncoder:
		return s.EnabledHardwareEncoder, true
	case MaxKeyFrameInterval:
		return s.MaxKeyFrameInterval, true
	case MaxKeyFrameIntervalDuration:
		return s.MaxKeyFrameIntervalDuration, true
	case ExpectedFrameRate:
		return s.ExpectedFrameRate, true
	case ScalingModeName:
		return s.ScalingMode, true
	}
	return nil, false
}

// With returns a copy of s with name set to value.
func (s EncoderSettings) With(name Name, value any) (EncoderSettings, error) {
	if err := s.Set(name, value); err != nil {
		return EncoderSettings{}, err
	}
	return s, nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	case ProfileLevel:
		return string(t), nil
	case ScalingMode:
		return string(t), nil
	}
	return "", fmt.Errorf("want string, got %T", v)
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint:
		return int(t), nil
	case uint32:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("%g is not an integer", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("want integer, got %T", v)
}

func toPositiveInt(v any) (int, error) {
	n, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case time.Duration:
		return t.Seconds(), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("want number, got %T", v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	}
	return false, fmt.Errorf("want bool, got %T", v)
}

// toDataRateLimits accepts DataRateLimits, a [bytes, seconds] pair, or a
// "bytes/seconds" string.
func toDataRateLimits(v any) (DataRateLimits, error) {
	var bytes int
	var seconds float64
	switch t := v.(type) {
	case DataRateLimits:
		return t, nil
	case []int:
		if len(t) != 2 {
			return DataRateLimits{}, fmt.Errorf("want 2 values, got %d", len(t))
		}
		bytes, seconds = t[0], float64(t[1])
	case []float64:
		if len(t) != 2 {
			return DataRateLimits{}, fmt.Errorf("want 2 values, got %d", len(t))
		}
		bytes, seconds = int(t[0]), t[1]
	case []any:
		if len(t) != 2 {
			return DataRateLimits{}, fmt.Errorf("want 2 values, got %d", len(t))
		}
		var err error
		if bytes, err = toInt(t[0]); err != nil {
			return DataRateLimits{}, err
		}
		if seconds, err = toFloat(t[1]); err != nil {
			return DataRateLimits{}, err
		}
	case string:
		parts := strings.FieldsFunc(t, func(r rune) bool { return r == '/' || r == ',' })
		if len(parts) != 2 {
			return DataRateLimits{}, fmt.Errorf("want bytes/seconds, got %q", t)
		}
		var err error
		if bytes, err = toInt(parts[0]); err != nil {
			return DataRateLimits{}, err
		}
		if seconds, err = toFloat(parts[1]); err != nil {
			return DataRateLimits{}, err
		}
	default:
		return DataRateLimits{}, fmt.Errorf("want [bytes, seconds], got %T", v)
	}
	if bytes < 0 || seconds < 0 {
		return DataRateLimits{}, fmt.Errorf("negative limits %d/%g", bytes, seconds)
	}
	return DataRateLimits{Bytes: bytes, Window: time.Duration(seconds * float64(time.Second))}, nil
}
