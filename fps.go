package willowfx

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/willowfx/transfer"
)

// hudRefresh is how often the HUD text is rebuilt, in seconds.
const hudRefresh = 0.5

// hud prints frame rates and transfer counters in the top-left corner.
// The text is refreshed every ~0.5 seconds into its own image.
type hud struct {
	img        *ebiten.Image
	text       string
	lastUpdate float64
}

func newHUD() *hud {
	return &hud{}
}

// update rebuilds the text when the refresh interval has elapsed. It
// reports whether the text changed.
func (h *hud) update(dt float64, scene, ui transfer.Stats, records int) bool {
	h.lastUpdate += dt
	if h.text != "" && h.lastUpdate < hudRefresh {
		return false
	}
	h.lastUpdate = 0
	h.text = hudText(ebiten.ActualFPS(), ebiten.ActualTPS(), scene, ui, records)
	return true
}

func hudText(fps, tps float64, scene, ui transfer.Stats, records int) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nscene: %d/%d written\nui: %d/%d written\nheld: %d",
		fps, tps,
		scene.Written, scene.Pushed,
		ui.Written, ui.Pushed,
		records)
}

func (h *hud) draw(screen *ebiten.Image) {
	if h.text == "" {
		return
	}
	if h.img == nil {
		// 160x80 fits five lines of the debug font.
		h.img = ebiten.NewImage(160, 80)
	}
	h.img.Clear()
	// Semi-transparent background for readability
	h.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrintAt(h.img, h.text, 2, 0)
	screen.DrawImage(h.img, nil)
}

func (h *hud) dispose() {
	if h.img != nil {
		h.img.Deallocate()
		h.img = nil
	}
}
