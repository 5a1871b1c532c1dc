package backend

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/h264session/pkg/adapters/logger"
	"github.com/user/h264session/pkg/adapters/vtsession"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{"", KindAuto, false},
		{"auto", KindAuto, false},
		{"FFmpeg", KindFFmpeg, false},
		{" videotoolbox ", KindVideoToolbox, false},
		{"passthrough", KindPassthrough, false},
		{"nvenc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownBackend) {
				t.Errorf("ParseKind(%q): expected ErrUnknownBackend, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): unexpected error %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseKind(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestSelect_Passthrough(t *testing.T) {
	svc, info, err := Select(KindPassthrough, Options{Logger: logger.NewNoop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Name() != string(KindPassthrough) {
		t.Errorf("expected passthrough service, got %s", svc.Name())
	}
	if info.Backend != KindPassthrough || info.FallbackUsed {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestSelect_FFmpegMissing(t *testing.T) {
	_, _, err := Select(KindFFmpeg, Options{
		FFmpegPath: filepath.Join(t.TempDir(), "missing"),
		Logger:     logger.NewNoop(),
	})
	if !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("expected ErrNoEncoderAvailable, got %v", err)
	}
}

func TestSelect_Unknown(t *testing.T) {
	if _, _, err := Select("nvenc", Options{Logger: logger.NewNoop()}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestSelect_AutoFallsBackToPassthrough(t *testing.T) {
	if vtsession.Available() {
		t.Skip("VideoToolbox available")
	}

	opts := Options{
		FFmpegPath:       filepath.Join(t.TempDir(), "missing"),
		AllowPassthrough: true,
		Logger:           logger.NewNoop(),
	}
	svc, info, err := Select(KindAuto, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Backend != KindPassthrough || !info.FallbackUsed {
		t.Errorf("expected passthrough fallback, got %+v", info)
	}
	if svc == nil {
		t.Fatal("service is nil")
	}

	opts.AllowPassthrough = false
	if _, _, err := Select(KindAuto, opts); !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("expected ErrNoEncoderAvailable, got %v", err)
	}
}

func TestAvailability(t *testing.T) {
	t.Logf("VideoToolbox available: %v", vtsession.Available())
}
