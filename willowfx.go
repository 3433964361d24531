package willowfx

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/willowfx/input"
)

// Renderer draws the scene for one frame. Draw runs on the render loop and
// receives an offscreen target sized to the window layout.
type Renderer interface {
	Draw(target *ebiten.Image)
}

// Updater is an optional Renderer capability. Update runs once per render
// tick with the tick length in seconds; a non-nil error stops the game.
type Updater interface {
	Update(dt float64) error
}

// UIHandler receives input that the UI loop owns. Methods run on the UI
// loop, with copies of the events seen by the render loop.
type UIHandler interface {
	HandleKey(e *input.KeyEvent)
	HandleButton(e *input.ButtonEvent)
}

// MotionHandler is an optional UIHandler capability for cursor moves.
type MotionHandler interface {
	HandleMotion(e *input.MotionEvent)
}

// ScrollHandler is an optional UIHandler capability for wheel input.
type ScrollHandler interface {
	HandleScroll(e *input.ScrollEvent)
}

// FocusHandler is an optional UIHandler capability notified when the UI
// gains or loses input focus.
type FocusHandler interface {
	FocusChanged(focused bool)
}

// Coverer is an optional UIHandler capability reporting whether the UI
// occupies a window position. Without it, any position where the published
// UI frame is not fully transparent counts as covered.
type Coverer interface {
	Covers(x, y int) bool
}

// Ticker is an optional UIHandler capability. Tick runs on the UI loop once
// per UI tick, after queued tasks, with the tick length in seconds.
type Ticker interface {
	Tick(dt float64) error
}

// Rect is an axis-aligned rectangle in window pixels. The coordinate system
// has its origin at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// The right and bottom edges are outside.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width &&
		y >= r.Y && y < r.Y+r.Height
}

// Covers implements Coverer, so a Rect can be embedded in a UIHandler with
// a fixed panel area.
func (r Rect) Covers(x, y int) bool { return r.Contains(x, y) }
