package transfer

import (
	"image"
	"sync/atomic"

	"github.com/phanxgames/willowfx/lock"
)

// Surface is an in-memory pixel surface. It is a Sink for frames coming out
// of a pipeline and a Source for frames going into one, so a UI toolkit can
// draw into it on its own loop and publish it.
type Surface struct {
	mu      lock.SpinLock
	width   int
	height  int
	format  PixelFormat
	pix     []byte
	version atomic.Uint64
}

// NewSurface allocates a transparent width x height surface storing pixels
// in format.
func NewSurface(width, height int, format PixelFormat) *Surface {
	width, height = max(width, 0), max(height, 0)
	return &Surface{
		width:  width,
		height: height,
		format: format,
		pix:    make([]byte, width*height*4),
	}
}

// PreferredFormat reports the storage format, so a pipeline writing into
// the surface converts once.
func (s *Surface) PreferredFormat() PixelFormat { return s.format }

// Bounds returns the surface rectangle, anchored at the origin.
func (s *Surface) Bounds() image.Rectangle { return image.Rect(0, 0, s.width, s.height) }

// Version counts completed writes.
func (s *Surface) Version() uint64 { return s.version.Load() }

// WritePixels copies a width x height block at (x, y), clipped to the
// surface, converting from format.
func (s *Surface) WritePixels(x, y, width, height int, format PixelFormat, pix []byte, stride int) {
	r := image.Rect(x, y, x+width, y+height).Intersect(s.Bounds())
	if r.Empty() {
		return
	}
	rowBytes := r.Dx() * 4
	srcX := (r.Min.X - x) * 4

	s.mu.Lock()
	for row := r.Min.Y; row < r.Max.Y; row++ {
		so := (row-y)*stride + srcX
		if so < 0 || so+rowBytes > len(pix) {
			break
		}
		do := (row*s.width + r.Min.X) * 4
		Convert(s.pix[do:do+rowBytes], pix[so:so+rowBytes], format, s.format)
	}
	s.mu.Unlock()
	s.version.Add(1)
}

// ReadPixels copies the surface into pix in the surface's own format.
func (s *Surface) ReadPixels(pix []byte) {
	s.mu.Lock()
	copy(pix, s.pix)
	s.mu.Unlock()
}

// Fill sets every pixel to the given RGBA bytes.
func (s *Surface) Fill(r, g, b, a uint8) {
	px := [4]byte{r, g, b, a}
	Convert(px[:], px[:], FormatRGBA, s.format)
	s.mu.Lock()
	for i := 0; i < len(s.pix); i += 4 {
		copy(s.pix[i:i+4], px[:])
	}
	s.mu.Unlock()
	s.version.Add(1)
}

// Image returns an RGBA copy of the surface.
func (s *Surface) Image() *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	s.mu.Lock()
	Convert(img.Pix, s.pix, s.format, FormatRGBA)
	s.mu.Unlock()
	return img
}
