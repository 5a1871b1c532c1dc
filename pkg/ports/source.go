package ports

import (
	"context"
	"image"
	"time"
)

// Frame is a raw image produced by a FrameSource.
type Frame struct {
	Image     image.Image
	Timestamp time.Duration
}

// FrameSource produces raw frames.
type FrameSource interface {
	// Frames starts producing frames. The channel is closed when the source
	// is exhausted or ctx is done.
	Frames(ctx context.Context) (<-chan Frame, error)
	Close() error
}
