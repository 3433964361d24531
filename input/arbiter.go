package input

import (
	"fmt"

	"github.com/joeycumines/logiface"

	"github.com/phanxgames/willowfx/lock"
)

// Owner names the loop that observed a press.
type Owner uint8

const (
	OwnerNone Owner = iota
	OwnerRender
	OwnerUI
)

func (o Owner) String() string {
	switch o {
	case OwnerNone:
		return "none"
	case OwnerRender:
		return "render"
	case OwnerUI:
		return "ui"
	default:
		return fmt.Sprintf("Owner(%d)", uint8(o))
	}
}

// Arbiter remembers which loop saw each key and button press until the
// matching release, and answers whether the UI loop may consume an event.
//
// It is a Listener on the render loop's chain, placed after the UI
// listener: a press that reaches it already consumed belongs to the UI,
// any other press to the render loop. Queries may come from any goroutine.
type Arbiter struct {
	NopListener

	mu      lock.AsyncSyncLock
	keys    map[Key]Owner
	buttons map[Button]Owner
	log     *logiface.Logger[logiface.Event]
}

// NewArbiter returns an arbiter with no records. A nil logger disables
// logging.
func NewArbiter(log *logiface.Logger[logiface.Event]) *Arbiter {
	return &Arbiter{
		keys:    make(map[Key]Owner),
		buttons: make(map[Button]Owner),
		log:     log,
	}
}

func ownerOf(e Event) Owner {
	if e.Consumed() {
		return OwnerUI
	}
	return OwnerRender
}

// OnKey records a press, keeping the first record for the code, and drops
// the record on a release. Releases flagged as repeating leave the record.
func (a *Arbiter) OnKey(e *KeyEvent) {
	if e.Code == KeyUnknown {
		return
	}
	switch {
	case e.Pressed:
		a.mu.SyncLock()
		_, ok := a.keys[e.Code]
		if !ok {
			a.keys[e.Code] = ownerOf(e)
		}
		n := len(a.keys) + len(a.buttons)
		a.mu.SyncUnlock()
		if !ok {
			a.log.Debug().Int("key", int(e.Code)).Str("owner", ownerOf(e).String()).Int("records", n).Log("key press recorded")
		}
	case !e.Repeating:
		a.mu.SyncLock()
		_, ok := a.keys[e.Code]
		delete(a.keys, e.Code)
		n := len(a.keys) + len(a.buttons)
		a.mu.SyncUnlock()
		if ok {
			a.log.Debug().Int("key", int(e.Code)).Int("records", n).Log("key press released")
		}
	}
}

// OnButton records a press and drops the record on the release.
func (a *Arbiter) OnButton(e *ButtonEvent) {
	a.mu.SyncLock()
	_, ok := a.buttons[e.Button]
	switch {
	case e.Pressed && !ok:
		a.buttons[e.Button] = ownerOf(e)
	case !e.Pressed:
		delete(a.buttons, e.Button)
	}
	n := len(a.keys) + len(a.buttons)
	a.mu.SyncUnlock()

	switch {
	case e.Pressed && !ok:
		a.log.Debug().Int("button", int(e.Button)).Str("owner", ownerOf(e).String()).Int("records", n).Log("button press recorded")
	case !e.Pressed && ok:
		a.log.Debug().Int("button", int(e.Button)).Int("records", n).Log("button press released")
	}
}

// MayConsume reports whether the UI loop may mark e consumed. It is false
// only for the release of a press the render loop saw first.
func (a *Arbiter) MayConsume(e Event) bool {
	switch ev := e.(type) {
	case *KeyEvent:
		return ev.Pressed || a.KeyOwner(ev.Code) != OwnerRender
	case *ButtonEvent:
		return ev.Pressed || a.ButtonOwner(ev.Button) != OwnerRender
	default:
		return true
	}
}

// KeyOwner returns the recorded owner of a held key.
func (a *Arbiter) KeyOwner(k Key) Owner {
	a.mu.AsyncLock()
	defer a.mu.AsyncUnlock()
	return a.keys[k]
}

// ButtonOwner returns the recorded owner of a held button.
func (a *Arbiter) ButtonOwner(b Button) Owner {
	a.mu.AsyncLock()
	defer a.mu.AsyncUnlock()
	return a.buttons[b]
}

// Len returns the number of outstanding records.
func (a *Arbiter) Len() int {
	a.mu.AsyncLock()
	defer a.mu.AsyncUnlock()
	return len(a.keys) + len(a.buttons)
}

// Reset forgets every record. Releases lost while the window was unfocused
// would otherwise pin records forever.
func (a *Arbiter) Reset() {
	a.mu.SyncLock()
	n := len(a.keys) + len(a.buttons)
	clear(a.keys)
	clear(a.buttons)
	a.mu.SyncUnlock()
	if n > 0 {
		a.log.Debug().Int("dropped", n).Log("input records reset")
	}
}
