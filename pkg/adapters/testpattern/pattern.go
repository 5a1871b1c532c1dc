// Package testpattern provides a frame source that draws SMPTE-style color
// bars with a moving marker and a frame counter.
package testpattern

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/user/h264session/pkg/ports"
)

var bars = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
}

// Options configures a pattern source.
type Options struct {
	Width     int
	Height    int
	FrameRate float64
	// Count is the number of frames to produce. Zero means until the
	// context is cancelled.
	Count int
	// Realtime paces frames at FrameRate instead of producing them as fast
	// as the consumer reads.
	Realtime bool
	// FontPath is an optional TrueType font for the counter.
	FontPath string
	FontSize float64
}

// Source draws pattern frames.
type Source struct {
	opts   Options
	face   font.Face
	log    ports.Logger
	cancel context.CancelFunc
}

// New creates a pattern source. The counter falls back to the built-in face
// when FontPath cannot be loaded.
func New(opts Options, log ports.Logger) *Source {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	if opts.FontSize <= 0 {
		opts.FontSize = float64(opts.Height) / 8
	}
	s := &Source{opts: opts, log: log.WithComponent("testpattern")}
	if opts.FontPath != "" {
		face, err := gg.LoadFontFace(opts.FontPath, opts.FontSize)
		if err != nil {
			s.log.Warn("Failed to load font %s: %v", opts.FontPath, err)
		} else {
			s.face = face
		}
	}
	return s
}

// Frames starts producing frames. The channel closes after Count frames or
// when ctx is done.
func (s *Source) Frames(ctx context.Context) (<-chan ports.Frame, error) {
	if s.opts.Width <= 0 || s.opts.Height <= 0 {
		return nil, fmt.Errorf("testpattern: invalid size %dx%d", s.opts.Width, s.opts.Height)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	interval := time.Duration(float64(time.Second) / s.opts.FrameRate)
	out := make(chan ports.Frame)
	go func() {
		defer close(out)
		defer cancel()

		var ticker *time.Ticker
		if s.opts.Realtime {
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}

		for i := 0; s.opts.Count == 0 || i < s.opts.Count; i++ {
			frame := ports.Frame{
				Image:     s.Draw(i),
				Timestamp: time.Duration(i) * interval,
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Draw renders frame n.
func (s *Source) Draw(n int) image.Image {
	w, h := float64(s.opts.Width), float64(s.opts.Height)
	dc := gg.NewContext(s.opts.Width, s.opts.Height)

	barWidth := w / float64(len(bars))
	for i, c := range bars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barWidth, 0, math.Ceil(barWidth), h*0.75)
		dc.Fill()
	}
	dc.SetColor(color.RGBA{16, 16, 16, 255})
	dc.DrawRectangle(0, h*0.75, w, h*0.25)
	dc.Fill()

	// The marker sweeps the lower band once per second.
	phase := math.Mod(float64(n)/s.opts.FrameRate, 1)
	size := h * 0.2
	dc.SetColor(color.White)
	dc.DrawRectangle(phase*(w-size), h*0.775, size, size)
	dc.Fill()

	if s.face != nil {
		dc.SetFontFace(s.face)
	}
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("%06d", n), w/2, h*0.375, 0.5, 0.5)

	return dc.Image()
}

// Close stops frame production.
func (s *Source) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
