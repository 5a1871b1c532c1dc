package scaler

import (
	"image"
	"sync"

	"github.com/user/h264session/pkg/settings"
)

// Pool recycles destination frames of one size.
type Pool struct {
	attrs settings.PoolAttributes
	pool  sync.Pool
}

// NewPool creates a pool and fills it with the minimum number of buffers.
func NewPool(attrs settings.PoolAttributes) *Pool {
	p := &Pool{attrs: attrs}
	p.pool.New = func() any {
		return p.newImage()
	}
	for i := 0; i < attrs.MinimumBufferCount; i++ {
		p.pool.Put(p.newImage())
	}
	return p
}

func (p *Pool) newImage() *image.RGBA {
	stride := p.attrs.Width * 4
	if p.attrs.BytesPerRowAlignment > stride {
		stride = p.attrs.BytesPerRowAlignment
	}
	return &image.RGBA{
		Pix:    make([]uint8, stride*p.attrs.Height),
		Stride: stride,
		Rect:   image.Rect(0, 0, p.attrs.Width, p.attrs.Height),
	}
}

// Attributes returns the pool attributes.
func (p *Pool) Attributes() settings.PoolAttributes {
	return p.attrs
}

// Get returns a frame of the pool size. Its contents are undefined.
func (p *Pool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// Put returns a frame to the pool. Frames of another size are dropped.
func (p *Pool) Put(img *image.RGBA) {
	b := img.Bounds()
	if b.Dx() != p.attrs.Width || b.Dy() != p.attrs.Height {
		return
	}
	p.pool.Put(img)
}

// ScaleInto takes a frame from the pool and scales src into it.
func (p *Pool) ScaleInto(src image.Image, mode settings.ScalingMode) *image.RGBA {
	dst := p.Get()
	Scale(dst, src, mode)
	return dst
}
