//go:build darwin && cgo

package vtsession

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/user/h264session/pkg/adapters/logger"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

func createTestImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSession_Encode(t *testing.T) {
	out := make(chan ports.EncodedOutput, 64)
	svc := New(logger.NewNoop())
	sess, err := svc.CreateSession(ports.SessionSpec{ID: 1, Width: 320, Height: 240, PreferHardware: true, Output: out})
	if err != nil {
		t.Skipf("VideoToolbox unavailable: %v", err)
	}
	defer sess.Invalidate()

	es := settings.Defaults()
	es.Width, es.Height = 320, 240
	for _, p := range es.SessionProperties() {
		if st := sess.SetProperty(p.Key, p.Value); !st.OK() {
			t.Logf("SetProperty(%s) = %s", p.Key, st)
		}
	}
	if st := sess.Prepare(); !st.OK() {
		t.Fatalf("Prepare failed: %s", st)
	}

	const frames = 10
	frameDur := time.Second / 30
	for i := 0; i < frames; i++ {
		st, _ := sess.EncodeFrame(ports.FrameSubmission{
			Image:         createTestImage(320, 240, color.RGBA{uint8(i * 20), 80, 160, 255}),
			PTS:           time.Duration(i) * frameDur,
			Duration:      frameDur,
			ForceKeyFrame: i == 0,
		})
		if !st.OK() {
			t.Fatalf("EncodeFrame %d failed: %s", i, st)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if st := sess.CompleteFrames(ctx); !st.OK() {
		t.Fatalf("CompleteFrames failed: %s", st)
	}

	var samples []*ports.CompressedSample
	for len(out) > 0 {
		o := <-out
		if o.Sample != nil {
			samples = append(samples, o.Sample)
		}
	}
	if len(samples) == 0 {
		t.Fatal("expected samples")
	}
	first := samples[0]
	if !first.Keyframe || first.Format == nil {
		t.Fatal("expected first sample to be a key frame with format")
	}
	if first.Format.Width != 320 || first.Format.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", first.Format.Width, first.Format.Height)
	}
	t.Logf("Encoded %d samples", len(samples))
}
