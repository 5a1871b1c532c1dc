// Package runner drives a session manager from a frame source and applies
// scheduled changes while frames flow.
package runner

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/session"
)

// Manager is the part of *session.Manager the runner drives.
type Manager interface {
	SubmitFrame(img image.Image, pts, duration time.Duration) session.Result
	UpdateSetting(name string, value any) error
	Suspend()
	Resume()
	Invalidate()
}

// Options configures a Runner.
type Options struct {
	// Changes are applied in frame order.
	Changes []Change
	// MaxFrames stops the run after this many frames. Zero means until the
	// source ends.
	MaxFrames int
}

// Stats summarizes a run.
type Stats struct {
	Frames    int
	Results   map[session.Result]int
	Changes   int
	Rejected  int
	Elapsed   time.Duration
	LastFrame time.Duration
}

// Runner pumps frames into a manager.
type Runner struct {
	mgr  Manager
	log  ports.Logger
	opts Options
}

// New creates a Runner.
func New(mgr Manager, log ports.Logger, opts Options) *Runner {
	return &Runner{
		mgr:  mgr,
		log:  log.WithComponent("runner"),
		opts: opts,
	}
}

// Run consumes src until it ends, MaxFrames is reached, or ctx is done.
// A cancelled context is not an error.
func (r *Runner) Run(ctx context.Context, src ports.FrameSource) (Stats, error) {
	stats := Stats{Results: make(map[session.Result]int)}

	frames, err := src.Frames(ctx)
	if err != nil {
		return stats, fmt.Errorf("open frame source: %w", err)
	}

	start := time.Now()
	defer func() {
		stats.Elapsed = time.Since(start)
	}()

	changes := r.opts.Changes
	var prev *ports.Frame
	for {
		if r.opts.MaxFrames > 0 && stats.Frames >= r.opts.MaxFrames {
			return stats, nil
		}

		var frame ports.Frame
		var ok bool
		select {
		case <-ctx.Done():
			return stats, nil
		case frame, ok = <-frames:
			if !ok {
				return stats, nil
			}
		}

		for len(changes) > 0 && changes[0].Frame <= stats.Frames {
			if r.apply(changes[0]) {
				stats.Changes++
			} else {
				stats.Rejected++
			}
			changes = changes[1:]
		}

		var duration time.Duration
		if prev != nil {
			duration = frame.Timestamp - prev.Timestamp
		}
		res := r.mgr.SubmitFrame(frame.Image, frame.Timestamp, duration)
		stats.Results[res]++
		stats.Frames++
		stats.LastFrame = frame.Timestamp
		prev = &frame
	}
}

func (r *Runner) apply(c Change) bool {
	switch c.Action {
	case ActionSet:
		if err := r.mgr.UpdateSetting(c.Name, c.Value); err != nil {
			r.log.Warn("Change %s rejected: %v", c, err)
			return false
		}
	case ActionSuspend:
		r.mgr.Suspend()
	case ActionResume:
		r.mgr.Resume()
	case ActionInvalidate:
		r.mgr.Invalidate()
	default:
		return false
	}
	r.log.Info("Applied change %s", c)
	return true
}
