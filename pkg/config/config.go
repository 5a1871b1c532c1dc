// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/h264session/pkg/session"
	"github.com/user/h264session/pkg/settings"
)

// Config represents the full configuration for h264session.
type Config struct {
	// Backend
	Backend          string `yaml:"backend"`
	FFmpegPath       string `yaml:"ffmpeg_path"`
	AllowPassthrough bool   `yaml:"allow_passthrough"`

	// Encoder settings keyed by setting name, e.g. "bitrate" or
	// "dataRateLimits". Unset names keep their defaults.
	Encoder map[string]any `yaml:"encoder"`

	Session SessionConfig `yaml:"session"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`

	// Scheduled changes in "frame:name=value" form.
	Changes []string `yaml:"changes"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// SessionConfig configures the session manager.
type SessionConfig struct {
	KeyFrameEvery int `yaml:"keyframe_every"`
	// FrameDuration accepts Go duration strings such as "33ms". Zero means
	// the manager default.
	FrameDuration   time.Duration `yaml:"frame_duration"`
	Timestamps      string        `yaml:"timestamps"`
	FlushTimeout    time.Duration `yaml:"flush_timeout"`
	RepeatWhenMuted bool          `yaml:"repeat_when_muted"`
	OutputBuffer    int           `yaml:"output_buffer"`
}

// SourceConfig selects and configures the frame source.
type SourceConfig struct {
	// Kind is "testpattern" or "screencast".
	Kind       string        `yaml:"kind"`
	Frames     int           `yaml:"frames"`
	FPS        float64       `yaml:"fps"`
	Realtime   bool          `yaml:"realtime"`
	FontPath   string        `yaml:"font_path"`
	URL        string        `yaml:"url"`
	ChromePath string        `yaml:"chrome_path"`
	Quality    int           `yaml:"quality"`
	Headless   bool          `yaml:"headless"`
	Duration   time.Duration `yaml:"duration"`
}

// OutputConfig configures where fragmented MP4 segments are written.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	Base string `yaml:"base"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Backend: "auto",

		Session: SessionConfig{
			KeyFrameEvery: session.DefaultKeyFrameEvery,
			Timestamps:    session.TimestampSynthetic.String(),
			FlushTimeout:  session.DefaultFlushTimeout,
			OutputBuffer:  session.DefaultOutputBuffer,
		},

		Source: SourceConfig{
			Kind:     "testpattern",
			Frames:   300,
			FPS:      settings.DefaultExpectedFrameRate,
			Quality:  80,
			Headless: true,
		},

		Output: OutputConfig{
			Dir:  "./out",
			Base: "out.mp4",
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// SetEncoder records an encoder setting override.
func (c *Config) SetEncoder(name string, value any) {
	if c.Encoder == nil {
		c.Encoder = make(map[string]any)
	}
	c.Encoder[name] = value
}

// ToSettings applies the encoder overrides to the default settings.
func (c Config) ToSettings() (settings.EncoderSettings, error) {
	s := settings.Defaults()

	names := make([]string, 0, len(c.Encoder))
	for name := range c.Encoder {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, ok := settings.Lookup(name)
		if !ok {
			return s, fmt.Errorf("%w: %q", settings.ErrUnknownSetting, name)
		}
		if err := s.Set(n, c.Encoder[name]); err != nil {
			return s, fmt.Errorf("encoder.%s: %w", name, err)
		}
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// ToManagerOptions converts the session section and encoder settings into
// session.Options.
func (c Config) ToManagerOptions() (session.Options, error) {
	s, err := c.ToSettings()
	if err != nil {
		return session.Options{}, err
	}

	policy, ok := session.ParseTimestampPolicy(c.Session.Timestamps)
	if !ok {
		return session.Options{}, fmt.Errorf("unknown timestamp policy %q", c.Session.Timestamps)
	}

	return session.Options{
		Settings:                 s,
		KeyFrameEvery:            c.Session.KeyFrameEvery,
		FrameDuration:            c.Session.FrameDuration,
		Timestamps:               policy,
		FlushTimeout:             c.Session.FlushTimeout,
		RepeatLastFrameWhenMuted: c.Session.RepeatWhenMuted,
		OutputBuffer:             c.Session.OutputBuffer,
	}, nil
}
