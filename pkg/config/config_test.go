package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/h264session/pkg/session"
	"github.com/user/h264session/pkg/settings"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Backend != "auto" {
		t.Errorf("expected backend auto, got %s", cfg.Backend)
	}
	if cfg.Source.Kind != "testpattern" {
		t.Errorf("expected testpattern source, got %s", cfg.Source.Kind)
	}

	s, err := cfg.ToSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != settings.Defaults() {
		t.Errorf("expected default settings, got %+v", s)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend: ffmpeg
encoder:
  width: 640
  height: 360
  bitrate: 500000
  profileLevel: H264_High_4_1
  dataRateLimits: [100000, 1]
  enabledHardwareEncoder: false
session:
  keyframe_every: 30
  frame_duration: 40ms
  timestamps: caller
source:
  kind: screencast
  url: https://example.com
  duration: 5s
changes:
  - "60:bitrate=250000"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Backend != "ffmpeg" {
		t.Errorf("expected backend ffmpeg, got %s", cfg.Backend)
	}
	if cfg.Source.Duration != 5*time.Second {
		t.Errorf("expected 5s duration, got %v", cfg.Source.Duration)
	}
	// Untouched defaults survive.
	if cfg.Output.Base != "out.mp4" {
		t.Errorf("expected base out.mp4, got %s", cfg.Output.Base)
	}
	if len(cfg.Changes) != 1 {
		t.Errorf("expected 1 change, got %d", len(cfg.Changes))
	}

	opts, err := cfg.ToManagerOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := opts.Settings
	if s.Width != 640 || s.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", s.Width, s.Height)
	}
	if s.Bitrate != 500000 {
		t.Errorf("expected bitrate 500000, got %d", s.Bitrate)
	}
	if s.ProfileLevel != settings.ProfileHigh41 {
		t.Errorf("expected High 4.1, got %s", s.ProfileLevel)
	}
	if s.DataRateLimits.Bytes != 100000 || s.DataRateLimits.Window != time.Second {
		t.Errorf("unexpected data rate limits: %s", s.DataRateLimits)
	}
	if s.EnabledHardwareEncoder {
		t.Error("expected hardware encoder disabled")
	}
	if opts.KeyFrameEvery != 30 {
		t.Errorf("expected keyframe every 30, got %d", opts.KeyFrameEvery)
	}
	if opts.FrameDuration != 40*time.Millisecond {
		t.Errorf("expected 40ms frame duration, got %v", opts.FrameDuration)
	}
	if opts.Timestamps != session.TimestampCaller {
		t.Errorf("expected caller timestamps, got %s", opts.Timestamps)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestToSettings_UnknownName(t *testing.T) {
	cfg := Defaults()
	cfg.SetEncoder("sharpness", 3)

	_, err := cfg.ToSettings()
	if !errors.Is(err, settings.ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestToSettings_InvalidValue(t *testing.T) {
	cfg := Defaults()
	cfg.SetEncoder("width", 641)

	if _, err := cfg.ToSettings(); err == nil {
		t.Error("expected error for odd width")
	}
}

func TestToManagerOptions_BadPolicy(t *testing.T) {
	cfg := Defaults()
	cfg.Session.Timestamps = "wallclock"

	if _, err := cfg.ToManagerOptions(); err == nil {
		t.Error("expected error for unknown timestamp policy")
	}
}
