package willowfx

import (
	"image"
	"math/bits"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Offscreen target pool ---

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
// It is owned by the render loop.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool for reuse. The image is cleared on
// next Acquire, not here.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// Drop deallocates every pooled image that Acquire(w, h) would hand out.
// It returns the number of images freed.
func (p *renderTexturePool) Drop(w, h int) int {
	key := poolKey(nextPowerOfTwo(w), nextPowerOfTwo(h))
	stack := p.buckets[key]
	for _, img := range stack {
		img.Deallocate()
	}
	delete(p.buckets, key)
	return len(stack)
}

// Len returns the number of pooled images.
func (p *renderTexturePool) Len() int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// --- Frame targets ---

// frameTarget is an offscreen image of exactly the layout size, carved out
// of a pooled power-of-two image.
type frameTarget struct {
	base *ebiten.Image
	view *ebiten.Image
}

// acquireTarget returns a cleared w x h target. The caller hands it back
// with releaseTarget once the frame has been pushed and drawn.
func (p *renderTexturePool) acquireTarget(w, h int) frameTarget {
	base := p.Acquire(w, h)
	return frameTarget{
		base: base,
		view: base.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image),
	}
}

func (p *renderTexturePool) releaseTarget(t frameTarget) {
	p.Release(t.base)
}
