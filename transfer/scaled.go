package transfer

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/phanxgames/willowfx/lock"
)

// ScaledSink scales every frame it receives to fill a destination image of
// any size.
type ScaledSink struct {
	mu     lock.SpinLock
	dst    draw.Image
	interp draw.Interpolator
	frame  *image.RGBA
}

// NewScaledSink returns a sink drawing into dst. A nil interp uses
// draw.ApproxBiLinear.
func NewScaledSink(dst draw.Image, interp draw.Interpolator) *ScaledSink {
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	return &ScaledSink{dst: dst, interp: interp}
}

// PreferredFormat implements FormatPreferrer.
func (s *ScaledSink) PreferredFormat() PixelFormat { return FormatRGBA }

// WritePixels scales the block to the destination bounds. The block
// position is ignored.
func (s *ScaledSink) WritePixels(_, _, width, height int, format PixelFormat, pix []byte, stride int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil || s.frame.Rect.Dx() != width || s.frame.Rect.Dy() != height {
		s.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	rowBytes := width * 4
	for row := range height {
		so := row * stride
		if so+rowBytes > len(pix) {
			break
		}
		do := row * s.frame.Stride
		Convert(s.frame.Pix[do:do+rowBytes], pix[so:so+rowBytes], format, FormatRGBA)
	}
	s.interp.Scale(s.dst, s.dst.Bounds(), s.frame, s.frame.Bounds(), draw.Src, nil)
}

// View calls fn with the destination image while no frame is being written.
func (s *ScaledSink) View(fn func(img image.Image)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.dst)
}
