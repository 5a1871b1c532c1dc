package screencast

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/user/h264session/pkg/adapters/logger"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	if got := ResolveChromePath("/custom/path/to/chrome"); got != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to be returned, got %s", got)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if got := ResolveChromePath(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", got)
	}
	if got := ResolveChromePath("/explicit/chrome"); got != "/explicit/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", got)
	}
}

func TestResolveExecutable(t *testing.T) {
	if got := resolveExecutable("/nonexistent/chrome"); got != "" {
		t.Errorf("expected empty result for missing path, got %s", got)
	}
	if got := resolveExecutable("definitely-not-a-browser-binary"); got != "" {
		t.Errorf("expected empty result for missing command, got %s", got)
	}
}

func TestDecodeFrame(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	img, err := decodeFrame(base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		t.Fatalf("decodeFrame failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", b.Dx(), b.Dy())
	}

	if _, err := decodeFrame("%%%"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := decodeFrame(base64.StdEncoding.EncodeToString([]byte("not jpeg"))); err == nil {
		t.Error("expected error for invalid jpeg")
	}
}

func TestSource_ChromeNotFound(t *testing.T) {
	t.Setenv("CHROME_PATH", "")
	t.Setenv("PATH", t.TempDir())

	if ResolveChromePath("") != "" {
		t.Skip("system Chrome found outside PATH")
	}
	src := New(Options{URL: "about:blank", Width: 320, Height: 240}, logger.NewNoop())
	if _, err := src.Frames(context.Background()); !errors.Is(err, ErrChromeNotFound) {
		t.Errorf("expected ErrChromeNotFound, got %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
