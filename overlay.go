package willowfx

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/willowfx/transfer"
)

// Overlay is the render-side texture holding the latest UI frame, drawn over
// the scene. It is the sink of the UI-to-render pipeline, so every method
// runs on the render loop.
//
// Show and Hide fade the overlay alpha with a tween instead of switching it.
type Overlay struct {
	img     *ebiten.Image
	scratch []byte
	writes  uint64

	visible bool
	alpha   float64
	fade    float32
	tween   *gween.Tween
	easing  ease.TweenFunc
}

func newOverlay(cfg OverlayConfig) *Overlay {
	o := &Overlay{
		visible: cfg.Visible,
		fade:    float32(cfg.FadeSeconds),
		easing:  ease.OutQuad,
	}
	if o.visible {
		o.alpha = 1
	}
	return o
}

// Visible reports whether the overlay is shown or fading in.
func (o *Overlay) Visible() bool { return o.visible }

// Alpha returns the current overlay opacity in [0, 1].
func (o *Overlay) Alpha() float64 { return o.alpha }

// Fading reports whether a fade is in progress.
func (o *Overlay) Fading() bool { return o.tween != nil }

// Show fades the overlay in.
func (o *Overlay) Show() { o.fadeTo(true) }

// Hide fades the overlay out.
func (o *Overlay) Hide() { o.fadeTo(false) }

// Toggle flips between Show and Hide.
func (o *Overlay) Toggle() { o.fadeTo(!o.visible) }

func (o *Overlay) fadeTo(visible bool) {
	o.visible = visible
	to := 0.0
	if visible {
		to = 1
	}
	if o.fade <= 0 {
		o.alpha = to
		o.tween = nil
		return
	}
	// Scale the duration so a reversed fade takes as long as the distance left.
	remaining := o.alpha
	if visible {
		remaining = 1 - o.alpha
	}
	if remaining <= 0 {
		o.tween = nil
		return
	}
	o.tween = gween.New(float32(o.alpha), float32(to), o.fade*float32(remaining), o.easing)
}

// Update advances the fade by dt seconds.
func (o *Overlay) Update(dt float64) {
	if o.tween == nil {
		return
	}
	val, finished := o.tween.Update(float32(dt))
	o.alpha = min(max(float64(val), 0), 1)
	if finished {
		o.tween = nil
	}
}

// PreferredFormat implements transfer.FormatPreferrer.
func (o *Overlay) PreferredFormat() transfer.PixelFormat { return transfer.FormatRGBA }

// WritePixels implements transfer.Sink. The texture is reallocated when the
// frame size changes.
func (o *Overlay) WritePixels(x, y, width, height int, format transfer.PixelFormat, pix []byte, stride int) {
	if width <= 0 || height <= 0 {
		return
	}
	fullW, fullH := x+width, y+height
	if o.img == nil || o.img.Bounds().Dx() != fullW || o.img.Bounds().Dy() != fullH {
		if o.img != nil {
			o.img.Deallocate()
		}
		o.img = ebiten.NewImage(fullW, fullH)
	}

	n := width * height * 4
	src := pix
	if format != transfer.FormatRGBA || stride != width*4 {
		if cap(o.scratch) < n {
			o.scratch = make([]byte, n)
		}
		o.scratch = o.scratch[:n]
		for row := range height {
			so := row * stride
			transfer.Convert(o.scratch[row*width*4:(row+1)*width*4], pix[so:so+width*4], format, transfer.FormatRGBA)
		}
		src = o.scratch
	}

	target := o.img
	if x != 0 || y != 0 {
		target = o.img.SubImage(image.Rect(x, y, fullW, fullH)).(*ebiten.Image)
	}
	target.WritePixels(src[:n])
	o.writes++
}

// Draw composites the overlay onto screen at the current alpha.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.img == nil || o.alpha <= 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.ColorScale.ScaleAlpha(float32(o.alpha))
	screen.DrawImage(o.img, &op)
}

func (o *Overlay) dispose() {
	if o.img != nil {
		o.img.Deallocate()
		o.img = nil
	}
	o.scratch = nil
}
