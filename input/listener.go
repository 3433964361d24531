package input

// Listener receives raw events. BeginInput and EndInput bracket the events
// of one render tick.
type Listener interface {
	BeginInput()
	EndInput()
	OnKey(e *KeyEvent)
	OnButton(e *ButtonEvent)
	OnMotion(e *MotionEvent)
	OnScroll(e *ScrollEvent)
}

// NopListener ignores everything. Embed it to implement only some methods.
type NopListener struct{}

func (NopListener) BeginInput() {}
func (NopListener) EndInput() {}
func (NopListener) OnKey(*KeyEvent) {}
func (NopListener) OnButton(*ButtonEvent) {}
func (NopListener) OnMotion(*MotionEvent) {}
func (NopListener) OnScroll(*ScrollEvent) {}

// Chain forwards every call to each listener in order. Later listeners see
// the consumed flag set by earlier ones.
type Chain []Listener

func (c Chain) BeginInput() {
	for _, l := range c {
		l.BeginInput()
	}
}

func (c Chain) EndInput() {
	for _, l := range c {
		l.EndInput()
	}
}

func (c Chain) OnKey(e *KeyEvent) {
	for _, l := range c {
		l.OnKey(e)
	}
}

func (c Chain) OnButton(e *ButtonEvent) {
	for _, l := range c {
		l.OnButton(e)
	}
}

func (c Chain) OnMotion(e *MotionEvent) {
	for _, l := range c {
		l.OnMotion(e)
	}
}

func (c Chain) OnScroll(e *ScrollEvent) {
	for _, l := range c {
		l.OnScroll(e)
	}
}

// Dispatch routes e to the matching Listener method.
func Dispatch(l Listener, e Event) {
	switch ev := e.(type) {
	case *KeyEvent:
		l.OnKey(ev)
	case *ButtonEvent:
		l.OnButton(ev)
	case *MotionEvent:
		l.OnMotion(ev)
	case *ScrollEvent:
		l.OnScroll(ev)
	}
}
