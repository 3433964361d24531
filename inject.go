package willowfx

import "github.com/phanxgames/willowfx/input"

// --- Input injection ---

// Injected events replace polling: while the queue is not empty, each render
// tick pops one event and sends it through the listener chain instead of
// reading the devices. Inject methods belong to the render loop; use
// RunOnRender from elsewhere.

// InjectKey queues a key press or release.
func (b *Bridge) InjectKey(code input.Key, pressed bool) {
	b.injectQueue = append(b.injectQueue, &input.KeyEvent{Code: code, Pressed: pressed})
}

// InjectRepeat queues an auto-repeat of a held key.
func (b *Bridge) InjectRepeat(code input.Key) {
	b.injectQueue = append(b.injectQueue, &input.KeyEvent{Code: code, Pressed: true, Repeating: true})
}

// InjectTap queues a press followed by a release of code. Consumes two
// ticks.
func (b *Bridge) InjectTap(code input.Key) {
	b.InjectKey(code, true)
	b.InjectKey(code, false)
}

// InjectButton queues a mouse button press or release at window position
// (x, y).
func (b *Bridge) InjectButton(btn input.Button, x, y int, pressed bool) {
	b.injectQueue = append(b.injectQueue, &input.ButtonEvent{Button: btn, X: x, Y: y, Pressed: pressed})
}

// InjectClick queues a left button press and release at (x, y). Consumes
// two ticks.
func (b *Bridge) InjectClick(x, y int) {
	b.InjectButton(0, x, y, true)
	b.InjectButton(0, x, y, false)
}

// PendingInjections returns the number of queued synthetic events.
func (b *Bridge) PendingInjections() int { return len(b.injectQueue) }

// processInjectedInput dispatches one queued event. It reports whether an
// event was sent, in which case polling is skipped for this tick.
func (b *Bridge) processInjectedInput() bool {
	if len(b.injectQueue) == 0 {
		return false
	}
	evt := b.injectQueue[0]
	copy(b.injectQueue, b.injectQueue[1:])
	b.injectQueue[len(b.injectQueue)-1] = nil
	b.injectQueue = b.injectQueue[:len(b.injectQueue)-1]

	b.chain.BeginInput()
	input.Dispatch(b.chain, evt)
	b.chain.EndInput()
	return true
}
