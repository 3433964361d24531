package willowfx

import (
	"math"
	"testing"
)

func TestOverlayStartsVisible(t *testing.T) {
	o := newOverlay(OverlayConfig{Visible: true, FadeSeconds: 0.5})
	if !o.Visible() || o.Alpha() != 1 {
		t.Errorf("visible=%v alpha=%v, want true 1", o.Visible(), o.Alpha())
	}
	if o.Fading() {
		t.Error("new overlay should not be fading")
	}
}

func TestOverlayFadeOutAndIn(t *testing.T) {
	o := newOverlay(OverlayConfig{Visible: true, FadeSeconds: 0.5})
	o.Hide()
	if o.Visible() {
		t.Error("Hide should clear Visible immediately")
	}
	if !o.Fading() {
		t.Fatal("Hide should start a fade")
	}

	o.Update(0.25)
	mid := o.Alpha()
	if mid <= 0 || mid >= 1 {
		t.Errorf("alpha mid-fade = %v, want in (0, 1)", mid)
	}

	o.Update(0.5)
	if o.Alpha() != 0 || o.Fading() {
		t.Errorf("alpha after fade = %v fading=%v, want 0 false", o.Alpha(), o.Fading())
	}

	o.Toggle()
	for range 60 {
		o.Update(1.0 / 60)
	}
	if math.Abs(o.Alpha()-1) > 1e-6 || !o.Visible() {
		t.Errorf("alpha after fade in = %v, want 1", o.Alpha())
	}
}

func TestOverlayZeroFadeIsImmediate(t *testing.T) {
	o := newOverlay(OverlayConfig{Visible: false})
	if o.Alpha() != 0 {
		t.Fatalf("alpha = %v, want 0", o.Alpha())
	}
	o.Show()
	if o.Alpha() != 1 || o.Fading() {
		t.Errorf("alpha = %v fading=%v, want 1 false", o.Alpha(), o.Fading())
	}
}

func TestOverlayShowWhenShownIsNoop(t *testing.T) {
	o := newOverlay(OverlayConfig{Visible: true, FadeSeconds: 1})
	o.Show()
	if o.Fading() {
		t.Error("Show on a fully visible overlay should not fade")
	}
}

func TestOverlayDrawWithoutTextureNoPanic(t *testing.T) {
	o := newOverlay(OverlayConfig{Visible: true})
	o.Draw(nil)
	o.dispose()
}
