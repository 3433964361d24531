package willowfx

import (
	"strings"
	"testing"

	"github.com/phanxgames/willowfx/transfer"
)

func TestHUDText(t *testing.T) {
	got := hudText(59.94, 60,
		transfer.Stats{Pushed: 120, Written: 3},
		transfer.Stats{Pushed: 10, Written: 10},
		2)
	for _, want := range []string{"FPS: 59.9", "TPS: 60.0", "scene: 3/120 written", "ui: 10/10 written", "held: 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("hud text %q missing %q", got, want)
		}
	}
}

func TestHUDRefreshInterval(t *testing.T) {
	h := newHUD()
	if !h.update(0.01, transfer.Stats{}, transfer.Stats{}, 0) {
		t.Fatal("first update should build the text")
	}
	if h.update(0.1, transfer.Stats{}, transfer.Stats{}, 0) {
		t.Error("update before the refresh interval should not rebuild")
	}
	if !h.update(0.45, transfer.Stats{}, transfer.Stats{}, 0) {
		t.Error("update after the refresh interval should rebuild")
	}
}
