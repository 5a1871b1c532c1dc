package testpattern

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/h264session/pkg/adapters/logger"
	"github.com/user/h264session/pkg/ports"
)

func TestSource_Frames(t *testing.T) {
	src := New(Options{Width: 160, Height: 90, FrameRate: 25, Count: 5}, logger.NewNoop())
	defer src.Close()

	frames, err := src.Frames(context.Background())
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}

	n := 0
	for f := range frames {
		want := time.Duration(n) * (time.Second / 25)
		if f.Timestamp != want {
			t.Errorf("frame %d: expected timestamp %v, got %v", n, want, f.Timestamp)
		}
		b := f.Image.Bounds()
		if b.Dx() != 160 || b.Dy() != 90 {
			t.Errorf("frame %d: expected 160x90, got %dx%d", n, b.Dx(), b.Dy())
		}
		n++
	}
	if n != 5 {
		t.Errorf("expected 5 frames, got %d", n)
	}
}

func TestSource_Draw(t *testing.T) {
	src := New(Options{Width: 140, Height: 80, FrameRate: 30}, logger.NewNoop())
	img := src.Draw(0)

	// Top left is the first (gray) bar.
	r, g, b, _ := img.At(2, 2).RGBA()
	if r>>8 != 192 || g>>8 != 192 || b>>8 != 192 {
		t.Errorf("expected gray bar, got %v", color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
	}

	// The marker moves between frames.
	a := src.Draw(0).At(75, 72)
	c := src.Draw(15).At(75, 72)
	if a == c {
		t.Error("expected marker to move between frames")
	}
}

func TestSource_Cancel(t *testing.T) {
	src := New(Options{Width: 32, Height: 32, FrameRate: 30}, logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())

	frames, err := src.Frames(ctx)
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}
	<-frames
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frames channel not closed after cancel")
		}
	}
}

func TestSource_InvalidSize(t *testing.T) {
	src := New(Options{}, logger.NewNoop())
	if _, err := src.Frames(context.Background()); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestSource_MissingFontWarnsOnce(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := logger.NewConsoleWriter(ports.LevelWarn, &stdout, &stderr)
	log.SetRepeatWindow(0)

	path := filepath.Join(t.TempDir(), "missing.ttf")
	src := New(Options{Width: 64, Height: 48, Count: 3, FontPath: path}, log)
	frames, err := src.Frames(context.Background())
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}
	n := 0
	for range frames {
		n++
	}
	log.Flush()

	if n != 3 {
		t.Errorf("expected 3 frames, got %d", n)
	}
	if got := strings.Count(stderr.String(), "\n"); got != 1 {
		t.Errorf("expected one warning, got %d lines in %q", got, stderr.String())
	}
	if !strings.Contains(stderr.String(), path) {
		t.Errorf("expected warning to name the font, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "[testpattern]") {
		t.Errorf("expected component prefix, got %q", stderr.String())
	}
}
