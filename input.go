package willowfx

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/willowfx/input"
)

// Poller feeds one render tick of raw input to a listener, bracketed by
// BeginInput and EndInput.
type Poller interface {
	Poll(l input.Listener)
}

// polledButtons are the mouse buttons InputSource reports.
var polledButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// InputSource polls Ebitengine once per render tick and turns the state
// changes into raw input events.
//
// Ebitengine reports held keys rather than auto-repeat, so repeats are
// synthesized from the press duration: the first one after RepeatDelay
// ticks, then one every RepeatInterval ticks.
type InputSource struct {
	repeatDelay    int
	repeatInterval int

	held   []ebiten.Key
	keyBuf []ebiten.Key

	lastX, lastY int
	hasCursor    bool
	focused      bool
	onFocusLost  func()
}

// NewInputSource returns a source using cfg for auto-repeat. onFocusLost,
// if not nil, runs on the tick the window loses focus.
func NewInputSource(cfg InputConfig, onFocusLost func()) *InputSource {
	return &InputSource{
		repeatDelay:    cfg.RepeatDelay,
		repeatInterval: cfg.RepeatInterval,
		focused:        true,
		onFocusLost:    onFocusLost,
	}
}

// Poll implements Poller.
func (s *InputSource) Poll(l input.Listener) {
	l.BeginInput()
	defer l.EndInput()

	focused := ebiten.IsFocused()
	if s.focused && !focused {
		// Releases that happen while unfocused are never reported.
		s.held = s.held[:0]
		if s.onFocusLost != nil {
			s.onFocusLost()
		}
	}
	s.focused = focused
	if !focused {
		return
	}

	mods := readModifiers()
	s.pollKeys(l, mods)
	s.pollCursor(l)
	s.pollButtons(l)
	s.pollWheel(l)
}

func (s *InputSource) pollKeys(l input.Listener, mods input.Modifiers) {
	s.keyBuf = inpututil.AppendJustPressedKeys(s.keyBuf[:0])
	for _, k := range s.keyBuf {
		s.held = append(s.held, k)
		l.OnKey(&input.KeyEvent{Code: input.Key(k), Pressed: true, Mods: mods})
	}

	for _, k := range s.held {
		if repeatDue(inpututil.KeyPressDuration(k), s.repeatDelay, s.repeatInterval) {
			l.OnKey(&input.KeyEvent{Code: input.Key(k), Pressed: true, Repeating: true, Mods: mods})
		}
	}

	s.keyBuf = inpututil.AppendJustReleasedKeys(s.keyBuf[:0])
	for _, k := range s.keyBuf {
		s.held = removeKey(s.held, k)
		l.OnKey(&input.KeyEvent{Code: input.Key(k), Mods: mods})
	}
}

func (s *InputSource) pollCursor(l input.Listener) {
	x, y := ebiten.CursorPosition()
	if s.hasCursor && x == s.lastX && y == s.lastY {
		return
	}
	var dx, dy int
	if s.hasCursor {
		dx, dy = x-s.lastX, y-s.lastY
	}
	s.lastX, s.lastY, s.hasCursor = x, y, true
	l.OnMotion(&input.MotionEvent{X: x, Y: y, DX: dx, DY: dy})
}

func (s *InputSource) pollButtons(l input.Listener) {
	for _, b := range polledButtons {
		switch {
		case inpututil.IsMouseButtonJustPressed(b):
			l.OnButton(&input.ButtonEvent{Button: input.Button(b), X: s.lastX, Y: s.lastY, Pressed: true})
		case inpututil.IsMouseButtonJustReleased(b):
			l.OnButton(&input.ButtonEvent{Button: input.Button(b), X: s.lastX, Y: s.lastY})
		}
	}
}

func (s *InputSource) pollWheel(l input.Listener) {
	dx, dy := ebiten.Wheel()
	if dx == 0 && dy == 0 {
		return
	}
	l.OnScroll(&input.ScrollEvent{DX: dx, DY: dy})
}

// repeatDue reports whether a key held for duration ticks repeats on this
// tick. The press tick itself never repeats.
func repeatDue(duration, delay, interval int) bool {
	if interval <= 0 {
		return false
	}
	start := max(delay, 1)
	return duration > start && (duration-start)%interval == 0
}

func removeKey(keys []ebiten.Key, k ebiten.Key) []ebiten.Key {
	for i := range keys {
		if keys[i] == k {
			copy(keys[i:], keys[i+1:])
			return keys[:len(keys)-1]
		}
	}
	return keys
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() input.Modifiers {
	var mods input.Modifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= input.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= input.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= input.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= input.ModMeta
	}
	return mods
}
