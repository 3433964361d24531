package willowfx

import (
	"github.com/phanxgames/willowfx/input"
	"github.com/phanxgames/willowfx/transfer"
)

// UIInput is the listener that decides which raw events belong to the UI.
// It runs first in the bridge chain, ahead of the Arbiter, so the Arbiter
// records a press as UI-owned exactly when UIInput consumed it.
//
// Consumed events are copied and delivered to the UIHandler on the UI
// loop. The render loop never waits for the UI to handle them.
type UIInput struct {
	input.NopListener

	arbiter *input.Arbiter
	sched   transfer.Scheduler
	handler UIHandler
	covers  func(x, y int) bool
	log     *Logger

	focused      bool
	lastX, lastY int
}

func newUIInput(arbiter *input.Arbiter, sched transfer.Scheduler, handler UIHandler, covers func(x, y int) bool, log *Logger) *UIInput {
	if covers == nil {
		if c, ok := handler.(Coverer); ok {
			covers = c.Covers
		}
	}
	return &UIInput{
		arbiter: arbiter,
		sched:   sched,
		handler: handler,
		covers:  covers,
		log:     log,
	}
}

// Focused reports whether the UI currently has keyboard focus.
func (u *UIInput) Focused() bool { return u.focused }

// Blur drops UI focus, as when the window loses focus.
func (u *UIInput) Blur() { u.setFocus(false) }

func (u *UIInput) covered(x, y int) bool {
	return u.handler != nil && u.covers != nil && u.covers(x, y)
}

func (u *UIInput) setFocus(focused bool) {
	if u.focused == focused {
		return
	}
	u.focused = focused
	u.log.Debug().Bool("focused", focused).Log("ui focus changed")
	if fh, ok := u.handler.(FocusHandler); ok {
		u.sched.Submit(func() { fh.FocusChanged(focused) })
	}
}

// OnKey implements input.Listener.
func (u *UIInput) OnKey(e *input.KeyEvent) {
	if e.Consumed() || u.handler == nil || !u.focused || !u.arbiter.MayConsume(e) {
		return
	}
	e.SetConsumed()
	ev := *e
	h := u.handler
	u.sched.Submit(func() { h.HandleKey(&ev) })
}

// OnButton implements input.Listener. A press inside the UI area grabs
// focus, a press outside drops it.
func (u *UIInput) OnButton(e *input.ButtonEvent) {
	u.lastX, u.lastY = e.X, e.Y
	if e.Consumed() || u.handler == nil {
		return
	}
	if e.Pressed {
		u.setFocus(u.covered(e.X, e.Y))
	}
	if !u.focused || !u.arbiter.MayConsume(e) {
		return
	}
	e.SetConsumed()
	ev := *e
	h := u.handler
	u.sched.Submit(func() { h.HandleButton(&ev) })
}

// OnMotion implements input.Listener. Moves over the UI area are consumed.
func (u *UIInput) OnMotion(e *input.MotionEvent) {
	u.lastX, u.lastY = e.X, e.Y
	if e.Consumed() || !u.covered(e.X, e.Y) {
		return
	}
	e.SetConsumed()
	if mh, ok := u.handler.(MotionHandler); ok {
		ev := *e
		u.sched.Submit(func() { mh.HandleMotion(&ev) })
	}
}

// OnScroll implements input.Listener. Wheel input goes to the UI when the
// cursor is over the UI area.
func (u *UIInput) OnScroll(e *input.ScrollEvent) {
	if e.Consumed() || !u.covered(u.lastX, u.lastY) {
		return
	}
	e.SetConsumed()
	if sh, ok := u.handler.(ScrollHandler); ok {
		ev := *e
		u.sched.Submit(func() { sh.HandleScroll(&ev) })
	}
}
