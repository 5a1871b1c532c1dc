// Package screencast provides a frame source that records a web page
// through the Chrome DevTools screencast.
package screencast

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/h264session/pkg/ports"
)

// ErrChromeNotFound is returned when no Chrome executable can be found.
var ErrChromeNotFound = errors.New("screencast: chrome not found, install Chrome/Chromium, set CHROME_PATH, or pass --chrome-path")

// Options configures a screencast source.
type Options struct {
	URL        string
	ChromePath string
	Width      int
	Height     int
	// Quality is the JPEG quality of screencast frames, 0-100.
	Quality  int
	Headless bool
	// Duration stops the recording after this long. Zero records until the
	// context is cancelled.
	Duration time.Duration
}

// Source streams decoded screencast frames.
type Source struct {
	opts Options
	log  ports.Logger

	mu         sync.Mutex
	browserCtx context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates a screencast source.
func New(opts Options, log ports.Logger) *Source {
	if opts.Quality <= 0 {
		opts.Quality = 80
	}
	return &Source{opts: opts, log: log.WithComponent("screencast")}
}

// Frames launches Chrome, opens the URL and streams frames until Duration
// elapses, ctx is done, or Close is called.
func (s *Source) Frames(ctx context.Context) (<-chan ports.Frame, error) {
	chromePath := ResolveChromePath(s.opts.ChromePath)
	if chromePath == "" {
		return nil, ErrChromeNotFound
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(s.opts.Width, s.opts.Height),
	}
	if s.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}

	var cancelRun context.CancelFunc
	if s.opts.Duration > 0 {
		ctx, cancelRun = context.WithTimeout(ctx, s.opts.Duration)
	} else {
		ctx, cancelRun = context.WithCancel(ctx)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancelAll := func() {
		browserCancel()
		allocCancel()
		cancelRun()
	}

	if err := chromedp.Run(browserCtx,
		emulation.SetDeviceMetricsOverride(int64(s.opts.Width), int64(s.opts.Height), 1, false),
		chromedp.Navigate(s.opts.URL),
	); err != nil {
		cancelAll()
		return nil, fmt.Errorf("open %s: %w", s.opts.URL, err)
	}

	out := make(chan ports.Frame, 8)
	done := make(chan struct{})
	s.mu.Lock()
	s.browserCtx = browserCtx
	s.cancel = cancelAll
	s.done = done
	s.mu.Unlock()

	start := time.Now()
	var sendMu sync.Mutex
	closed := false

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		go chromedp.Run(browserCtx, page.ScreencastFrameAck(e.SessionID))

		img, err := decodeFrame(e.Data)
		if err != nil {
			s.log.Debug("Skipping screencast frame: %v", err)
			return
		}
		frame := ports.Frame{Image: img, Timestamp: time.Since(start)}

		sendMu.Lock()
		defer sendMu.Unlock()
		if closed {
			return
		}
		select {
		case out <- frame:
		default:
			s.log.Debug("Screencast consumer is behind, frame skipped")
		}
	})

	if err := chromedp.Run(browserCtx,
		page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(int64(s.opts.Quality)).
			WithEveryNthFrame(1),
	); err != nil {
		cancelAll()
		return nil, fmt.Errorf("start screencast: %w", err)
	}

	go func() {
		defer close(done)
		<-browserCtx.Done()
		sendMu.Lock()
		closed = true
		close(out)
		sendMu.Unlock()
	}()
	return out, nil
}

// decodeFrame decodes a base64 JPEG screencast payload.
func decodeFrame(data string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	return img, nil
}

// Close stops the screencast and the browser.
func (s *Source) Close() error {
	s.mu.Lock()
	browserCtx := s.browserCtx
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	stopCtx, stop := context.WithTimeout(browserCtx, 5*time.Second)
	defer stop()
	_ = chromedp.Run(stopCtx, page.StopScreencast())
	cancel()
	<-done
	return nil
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
