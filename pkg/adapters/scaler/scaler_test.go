package scaler

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/h264session/pkg/settings"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestTrimRect(t *testing.T) {
	tests := []struct {
		name string
		src  image.Rectangle
		w, h int
		want image.Rectangle
	}{
		{"wider source", image.Rect(0, 0, 200, 100), 100, 100, image.Rect(50, 0, 150, 100)},
		{"taller source", image.Rect(0, 0, 100, 200), 100, 100, image.Rect(0, 50, 100, 150)},
		{"same aspect", image.Rect(0, 0, 160, 90), 320, 180, image.Rect(0, 0, 160, 90)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trimRect(tt.src, tt.w, tt.h); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLetterboxRect(t *testing.T) {
	got := letterboxRect(image.Rect(0, 0, 100, 100), 200, 100)
	if want := image.Rect(0, 25, 100, 75); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	got = letterboxRect(image.Rect(0, 0, 100, 100), 100, 200)
	if want := image.Rect(25, 0, 75, 100); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScale_Letterbox(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Scale(dst, solid(200, 100, red), settings.ScalingLetterbox)

	if got := dst.RGBAAt(50, 5); got != (color.RGBA{A: 255}) {
		t.Errorf("expected black bar, got %v", got)
	}
	if got := dst.RGBAAt(50, 50); got != red {
		t.Errorf("expected red center, got %v", got)
	}
}

func TestScale_TrimFills(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Scale(dst, solid(200, 100, blue), settings.ScalingTrim)

	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}, {50, 50}} {
		if got := dst.RGBAAt(p.X, p.Y); got != blue {
			t.Errorf("pixel %v: expected blue, got %v", p, got)
		}
	}
}

func TestScale_SameSizeCopies(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	Scale(dst, solid(8, 8, green), settings.ScalingNormal)
	if got := dst.RGBAAt(7, 7); got != green {
		t.Errorf("expected green, got %v", got)
	}
}

func TestPool(t *testing.T) {
	s := settings.Defaults()
	p := NewPool(s.PixelBufferPoolAttributes())

	img := p.Get()
	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 272 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if img.Stride != 480*4 {
		t.Errorf("expected stride %d, got %d", 480*4, img.Stride)
	}
	p.Put(img)
	p.Put(image.NewRGBA(image.Rect(0, 0, 10, 10)))

	scaled := p.ScaleInto(solid(960, 544, color.RGBA{R: 1, A: 255}), settings.ScalingTrim)
	if scaled.Bounds().Dx() != 480 {
		t.Errorf("expected width 480, got %d", scaled.Bounds().Dx())
	}
}
