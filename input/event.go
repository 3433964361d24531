// Package input carries raw input events from the render loop to the UI
// loop and decides which of the two may treat each event as consumed.
package input

import "fmt"

// Key identifies a keyboard key. Values are ebiten.Key values; KeyUnknown
// marks keys the window system could not name.
type Key int

// KeyUnknown is never recorded by the Arbiter.
const KeyUnknown Key = -1

// Button identifies a mouse button. Values are ebiten.MouseButton values.
type Button int

// Modifiers is a set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether every modifier in m2 is held.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

// Event is implemented by every raw event type.
type Event interface {
	Consumed() bool
	SetConsumed()
	fmt.Stringer
}

type consumable struct{ consumed bool }

// Consumed reports whether a listener has claimed the event.
func (c *consumable) Consumed() bool { return c.consumed }

// SetConsumed claims the event.
func (c *consumable) SetConsumed() { c.consumed = true }

// KeyEvent is a key press, auto-repeat or release. Repeats arrive with both
// Pressed and Repeating set.
type KeyEvent struct {
	Code      Key
	Pressed   bool
	Repeating bool
	Mods      Modifiers
	consumable
}

func (e *KeyEvent) String() string {
	return fmt.Sprintf("key{code=%d pressed=%t repeating=%t mods=%#x consumed=%t}",
		e.Code, e.Pressed, e.Repeating, uint8(e.Mods), e.consumed)
}

// ButtonEvent is a mouse button press or release at a window position.
type ButtonEvent struct {
	Button  Button
	X, Y    int
	Pressed bool
	consumable
}

func (e *ButtonEvent) String() string {
	return fmt.Sprintf("button{button=%d pos=(%d,%d) pressed=%t consumed=%t}",
		e.Button, e.X, e.Y, e.Pressed, e.consumed)
}

// MotionEvent is a cursor move.
type MotionEvent struct {
	X, Y   int
	DX, DY int
	consumable
}

func (e *MotionEvent) String() string {
	return fmt.Sprintf("motion{pos=(%d,%d) delta=(%d,%d) consumed=%t}", e.X, e.Y, e.DX, e.DY, e.consumed)
}

// ScrollEvent is a wheel or trackpad scroll.
type ScrollEvent struct {
	DX, DY float64
	consumable
}

func (e *ScrollEvent) String() string {
	return fmt.Sprintf("scroll{delta=(%g,%g) consumed=%t}", e.DX, e.DY, e.consumed)
}

// IsRelease reports whether e releases a key or button.
func IsRelease(e Event) bool {
	switch ev := e.(type) {
	case *KeyEvent:
		return !ev.Pressed
	case *ButtonEvent:
		return !ev.Pressed
	default:
		return false
	}
}
