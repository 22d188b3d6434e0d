package analyzer

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

// ErrEmptyImage is returned for images without pixels
var ErrEmptyImage = errors.New("image has zero width or height")

// PixelBuffer is a width×height grid of non-premultiplied RGBA samples.
// A buffer belongs to exactly one analysis between acquireBuffer and release.
type PixelBuffer struct {
	Width  int
	Height int
	pix    []uint8
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return &PixelBuffer{}
	},
}

// acquireBuffer decodes img into a pooled buffer. The whole image is drawn
// before the buffer is returned, so no channel read observes a partial buffer.
func acquireBuffer(img image.Image) (*PixelBuffer, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	buf := bufferPool.Get().(*PixelBuffer)
	need := width * height * 4
	if cap(buf.pix) < need {
		buf.pix = make([]uint8, need)
	}
	buf.pix = buf.pix[:need]
	buf.Width, buf.Height = width, height

	dst := &image.NRGBA{
		Pix:    buf.pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)

	return buf, nil
}

// release hands the backing array back to the pool
func (b *PixelBuffer) release() {
	b.Width, b.Height = 0, 0
	bufferPool.Put(b)
}

// RGB returns the color channels of the pixel at (x, y)
func (b *PixelBuffer) RGB(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * 4
	return b.pix[i], b.pix[i+1], b.pix[i+2]
}

// Contains reports whether (x, y) lies inside the buffer
func (b *PixelBuffer) Contains(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}
