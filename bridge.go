package willowfx

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/willowfx/input"
	"github.com/phanxgames/willowfx/lock"
	"github.com/phanxgames/willowfx/taskqueue"
	"github.com/phanxgames/willowfx/transfer"
)

// ErrClosed is returned by operations on a closed Bridge.
var ErrClosed = errors.New("willowfx: bridge closed")

// ErrNoUISize is returned by PublishUI before SetUISize.
var ErrNoUISize = errors.New("willowfx: ui size not set")

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the logger shared by every bridge component.
func WithLogger(l *Logger) BridgeOption {
	return func(b *Bridge) { b.log = l }
}

// WithSink sends scene frames to s instead of the built-in Surface.
func WithSink(s transfer.Sink) BridgeOption {
	return func(b *Bridge) { b.sink = s }
}

// WithUIHandler sets the UI that receives consumed input on the UI loop.
func WithUIHandler(h UIHandler) BridgeOption {
	return func(b *Bridge) { b.handler = h }
}

// WithInputSource replaces the Ebitengine input poller.
func WithInputSource(p Poller) BridgeOption {
	return func(b *Bridge) { b.poller = p }
}

// Bridge connects the Ebitengine render loop to a UI loop running on its own
// goroutine. It implements ebiten.Game.
//
// Rendered scene frames travel render -> UI through the scene pipeline and
// are written to the sink on the UI loop. UI frames travel UI -> render
// through the UI pipeline into the Overlay. Raw input is polled on the render
// loop and split between the scene and the UI by the UIInput listener and
// the Arbiter.
//
// Update, Draw, Layout, Resize, Attach, AddListener and the Inject methods
// belong to the render loop. SetUISize, PublishUI and RunUI belong to the UI
// loop. RunOnRender, RunOnUI and Stats are safe from any goroutine.
type Bridge struct {
	cfg Config
	log *Logger

	renderQueue *taskqueue.Queue
	uiQueue     *taskqueue.Queue

	arbiter     *input.Arbiter
	uiInput     *UIInput
	listeners   []input.Listener
	chain       input.Chain
	poller      Poller
	injectQueue []input.Event
	testRunner  *TestRunner

	renderers []Renderer
	updaters  []Updater

	// sceneMu guards scene, surface and the frame size. Draw holds it in
	// async mode while pushing, Resize in sync mode while swapping. Writes
	// happen only on the render loop.
	sceneMu       lock.AsyncSyncLock
	scene         *transfer.Pipeline
	sink          transfer.Sink
	surface       *transfer.Surface
	width, height int

	uiMu lock.AsyncSyncLock
	ui   *transfer.Pipeline

	handler       UIHandler
	overlay       *Overlay
	hud           *hud
	rtPool        renderTexturePool
	snapshotQueue []string

	// windowClosing is set by Run once the window close is handled.
	windowClosing func() bool

	stopping atomic.Bool
	closed   atomic.Bool
}

// NewBridge builds a bridge sized to cfg.Width x cfg.Height.
func NewBridge(cfg Config, opts ...BridgeOption) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bridge{
		cfg:     cfg,
		overlay: newOverlay(cfg.Overlay),
		hud:     newHUD(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.renderQueue = taskqueue.New(taskqueue.WithLogger(b.log))
	b.uiQueue = taskqueue.New(taskqueue.WithLogger(b.log))
	b.arbiter = input.NewArbiter(b.log)
	b.uiInput = newUIInput(b.arbiter, b.uiQueue, b.handler, b.uiCovers, b.log)
	b.rebuildChain()
	if b.poller == nil {
		b.poller = NewInputSource(cfg.Input, b.focusLost)
	}

	if err := b.Resize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	b.log.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Str("mode", cfg.Transfer.Mode.String()).
		Int("trailing_frames", cfg.Transfer.TrailingFrames).
		Bool("ui", b.handler != nil).
		Log("bridge created")
	return b, nil
}

// Config returns the configuration the bridge was built with.
func (b *Bridge) Config() Config { return b.cfg }

// Overlay returns the UI overlay. Its methods belong to the render loop.
func (b *Bridge) Overlay() *Overlay { return b.overlay }

// Arbiter returns the input arbiter.
func (b *Bridge) Arbiter() *input.Arbiter { return b.arbiter }

// UIInput returns the UI input listener.
func (b *Bridge) UIInput() *UIInput { return b.uiInput }

// Attach adds a scene renderer. Renderers draw in attach order. The Updater
// capability is resolved here once.
func (b *Bridge) Attach(r Renderer) {
	b.renderers = append(b.renderers, r)
	if u, ok := r.(Updater); ok {
		b.updaters = append(b.updaters, u)
	}
}

// AddListener appends a scene listener. It sees every event after the UI
// and the Arbiter, with Consumed set when the UI took it.
func (b *Bridge) AddListener(l input.Listener) {
	b.listeners = append(b.listeners, l)
	b.rebuildChain()
}

func (b *Bridge) rebuildChain() {
	chain := make(input.Chain, 0, 2+len(b.listeners))
	chain = append(chain, b.uiInput, b.arbiter)
	b.chain = append(chain, b.listeners...)
}

// RunOnRender queues fn for the start of the next render tick.
func (b *Bridge) RunOnRender(fn func()) { b.renderQueue.Submit(fn) }

// RunOnUI queues fn for the next UI tick.
func (b *Bridge) RunOnUI(fn func()) { b.uiQueue.Submit(fn) }

// Size returns the current scene frame size.
func (b *Bridge) Size() (width, height int) {
	b.sceneMu.AsyncLock()
	defer b.sceneMu.AsyncUnlock()
	return b.width, b.height
}

// SceneSurface returns the built-in scene sink, or nil when WithSink was
// given. It changes on every resize.
func (b *Bridge) SceneSurface() *transfer.Surface {
	b.sceneMu.AsyncLock()
	defer b.sceneMu.AsyncUnlock()
	return b.surface
}

// Stats returns the counters of the current scene and UI pipelines.
func (b *Bridge) Stats() (scene, ui transfer.Stats) {
	b.sceneMu.AsyncLock()
	scene = b.scene.Stats()
	b.sceneMu.AsyncUnlock()

	b.uiMu.AsyncLock()
	if b.ui != nil {
		ui = b.ui.Stats()
	}
	b.uiMu.AsyncUnlock()
	return scene, ui
}

func (b *Bridge) pipelineOptions(src transfer.PixelFormat, sched transfer.Scheduler, onDispose func()) transfer.Options {
	trailing := b.cfg.Transfer.TrailingFrames
	return transfer.Options{
		Mode:           b.cfg.Transfer.Mode,
		TrailingFrames: &trailing,
		SourceFormat:   src,
		Scheduler:      sched,
		Logger:         b.log,
		OnDispose:      onDispose,
	}
}

// --- Render loop ---

// Resize rebuilds the scene pipeline for width x height frames and disposes
// the old one. Pending frames of the old size are dropped.
func (b *Bridge) Resize(width, height int) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize scene: %w: %dx%d", transfer.ErrInvalidSize, width, height)
	}
	sink := b.sink
	var surface *transfer.Surface
	if sink == nil {
		surface = transfer.NewSurface(width, height, transfer.FormatRGBA)
		sink = surface
	}
	p, err := transfer.New(width, height, sink, b.pipelineOptions(transfer.FormatRGBA, b.uiQueue, func() {
		if n := b.rtPool.Drop(width, height); n > 0 {
			b.log.Debug().Int("released", n).Log("offscreen targets released")
		}
	}))
	if err != nil {
		return fmt.Errorf("resize scene: %w", err)
	}

	b.sceneMu.SyncLock()
	old := b.scene
	b.scene, b.surface = p, surface
	b.width, b.height = width, height
	if old != nil {
		old.Dispose()
	}
	b.sceneMu.SyncUnlock()

	b.log.Debug().Int("width", width).Int("height", height).Log("scene resized")
	return nil
}

// Update implements ebiten.Game.
func (b *Bridge) Update() error {
	if b.closed.Load() {
		return ebiten.Termination
	}
	if b.stopping.Load() || (b.windowClosing != nil && b.windowClosing()) {
		b.Close()
		return ebiten.Termination
	}
	dt := b.tickSeconds()

	if err := b.renderQueue.Drain(); err != nil {
		return fmt.Errorf("render task: %w", err)
	}
	if b.testRunner != nil {
		b.testRunner.step(b)
	}
	if !b.processInjectedInput() {
		b.poller.Poll(b.chain)
	}
	b.overlay.Update(dt)
	if b.cfg.HUD {
		scene, ui := b.Stats()
		b.hud.update(dt, scene, ui, b.arbiter.Len())
	}
	for _, u := range b.updaters {
		if err := u.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) tickSeconds() float64 {
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = b.cfg.TPS
	}
	return 1 / float64(tps)
}

// Draw implements ebiten.Game. The attached renderers draw into an offscreen
// target, which is pushed through the scene pipeline and then composited
// with the overlay and the HUD.
func (b *Bridge) Draw(screen *ebiten.Image) {
	if b.closed.Load() {
		return
	}
	var stats debugStats
	start := time.Now()

	// The frame size only changes on the render loop, so it is read unlocked.
	target := b.rtPool.acquireTarget(b.width, b.height)
	for _, r := range b.renderers {
		r.Draw(target.view)
	}
	stats.renderers = len(b.renderers)
	stats.renderTime = time.Since(start)

	pushStart := time.Now()
	b.sceneMu.AsyncLock()
	b.scene.Push(target.view)
	b.sceneMu.AsyncUnlock()
	stats.pushTime = time.Since(pushStart)

	composeStart := time.Now()
	screen.DrawImage(target.view, nil)
	b.rtPool.releaseTarget(target)
	b.overlay.Draw(screen)
	if b.cfg.HUD {
		b.hud.draw(screen)
	}
	stats.composeTime = time.Since(composeStart)

	b.flushSnapshots()
	b.debugLog(stats)
	b.debugCheckSlowFrame(stats)
}

// Layout implements ebiten.Game. A new outside size resizes the scene.
func (b *Bridge) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 &&
		(outsideWidth != b.width || outsideHeight != b.height) && !b.closed.Load() {
		if err := b.Resize(outsideWidth, outsideHeight); err != nil {
			b.log.Err().Err(err).Log("resize failed")
		}
	}
	return b.width, b.height
}

func (b *Bridge) focusLost() {
	b.arbiter.Reset()
	b.uiInput.Blur()
}

// uiCovers reports whether the visible UI occupies a window position: the
// handler's Coverer if it has one, otherwise any non-transparent pixel of
// the latest published UI frame.
func (b *Bridge) uiCovers(x, y int) bool {
	if !b.overlay.Visible() {
		return false
	}
	if c, ok := b.handler.(Coverer); ok {
		return c.Covers(x, y)
	}
	b.uiMu.AsyncLock()
	defer b.uiMu.AsyncUnlock()
	if b.ui == nil {
		return false
	}
	alpha, ok := b.ui.AlphaAt(x, y)
	return ok && alpha > 0
}

// Stop asks the render loop to close the bridge and end the game on its
// next tick. Safe from any goroutine.
func (b *Bridge) Stop() { b.stopping.Store(true) }

// Close disposes both pipelines and releases the textures. Close belongs to
// the render loop, or runs after it has stopped. It is idempotent.
func (b *Bridge) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.sceneMu.SyncLock()
	b.scene.Dispose()
	b.sceneMu.SyncUnlock()

	b.uiMu.SyncLock()
	if b.ui != nil {
		b.ui.Dispose()
	}
	b.uiMu.SyncUnlock()

	b.overlay.dispose()
	b.hud.dispose()

	scene, ui := b.Stats()
	b.log.Info().
		Uint64("scene_written", scene.Written).
		Uint64("scene_dropped", scene.DroppedDisposed).
		Uint64("ui_written", ui.Written).
		Log("bridge closed")
}
