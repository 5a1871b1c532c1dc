package mocks

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/user/h264session/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource that emits Count
// solid frames of the given size.
type FrameSource struct {
	Count         int
	Width, Height int
	Interval      time.Duration
	FramesFunc    func(ctx context.Context) (<-chan ports.Frame, error)

	Closed bool
}

func (s *FrameSource) Frames(ctx context.Context) (<-chan ports.Frame, error) {
	if s.FramesFunc != nil {
		return s.FramesFunc(ctx)
	}
	w, h := s.Width, s.Height
	if w == 0 || h == 0 {
		w, h = 64, 48
	}
	ch := make(chan ports.Frame)
	go func() {
		defer close(ch)
		for i := 0; i < s.Count; i++ {
			img := image.NewRGBA(image.Rect(0, 0, w, h))
			c := color.RGBA{R: uint8(i), G: 128, B: 255, A: 255}
			for p := 0; p < len(img.Pix); p += 4 {
				img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
			}
			select {
			case ch <- ports.Frame{Image: img, Timestamp: time.Duration(i) * s.Interval}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (s *FrameSource) Close() error {
	s.Closed = true
	return nil
}

// Ensure FrameSource implements ports.FrameSource
var _ ports.FrameSource = (*FrameSource)(nil)
