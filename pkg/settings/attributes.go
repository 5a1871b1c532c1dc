package settings

import "github.com/user/h264session/pkg/ports"

// PixelFormatBGRA is the source pixel format handed to sessions.
const PixelFormatBGRA = "BGRA"

// MinimumPoolBuffers is the number of buffers a pixel buffer pool keeps ready.
const MinimumPoolBuffers = 12

// PoolAttributes sizes a pixel buffer pool.
type PoolAttributes struct {
	Width                int
	Height               int
	BytesPerRowAlignment int
	MinimumBufferCount   int
}

// SourceBufferAttributes returns the source buffer attributes for a session.
func (s EncoderSettings) SourceBufferAttributes() ports.SourceAttributes {
	return ports.SourceAttributes{
		PixelFormat: PixelFormatBGRA,
		Width:       s.Width,
		Height:      s.Height,
	}
}

// PixelBufferPoolAttributes returns the attributes of the pool that backs
// scaled source frames.
func (s EncoderSettings) PixelBufferPoolAttributes() PoolAttributes {
	return PoolAttributes{
		Width:                s.Width,
		Height:               s.Height,
		BytesPerRowAlignment: s.Width * 4,
		MinimumBufferCount:   MinimumPoolBuffers,
	}
}
