// Package transfer moves rendered frames from the render loop to a pixel
// sink owned by another loop without tearing and without touching freed
// memory.
//
// A [Pipeline] has two stages. The producer stage runs on the render loop
// ([Pipeline.Push]) and copies the source pixels into a shared buffer. The
// consumer stage runs wherever the [Scheduler] executes tasks and copies the
// shared buffer out to the [Sink]. Each stage carries its own [State], so
// disposal waits for any in-flight copy on either side before freeing the
// buffers.
package transfer

import (
	"bytes"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/phanxgames/willowfx/lock"
)

// DefaultTrailingFrames is the number of frames forwarded after the pixels
// stop changing in ModeOnChanges.
const DefaultTrailingFrames = 2

// Source fills pix with one frame in the pipeline's source format.
// *ebiten.Image satisfies Source.
type Source interface {
	ReadPixels(pix []byte)
}

// Sink receives converted frames. WritePixels is called once per frame with
// the whole frame.
type Sink interface {
	WritePixels(x, y, width, height int, format PixelFormat, pix []byte, stride int)
}

// FormatPreferrer is implemented by sinks that want frames in a specific
// channel order.
type FormatPreferrer interface {
	PreferredFormat() PixelFormat
}

// Scheduler runs tasks on the consumer's loop. *taskqueue.Queue satisfies
// Scheduler.
type Scheduler interface {
	Submit(task func())
}

// Options configures a Pipeline.
type Options struct {
	Mode Mode
	// TrailingFrames is the number of identical frames still forwarded after
	// a change in ModeOnChanges. Nil means DefaultTrailingFrames.
	TrailingFrames *int
	// SourceFormat is the channel order Source and PushPixels deliver.
	SourceFormat PixelFormat
	// DestFormat is the channel order handed to the sink. Nil asks the sink
	// through FormatPreferrer and falls back to FormatRGBA.
	DestFormat *PixelFormat
	Scheduler  Scheduler
	Logger     *logiface.Logger[logiface.Event]
	// OnDispose runs once during Dispose after both stages are drained.
	OnDispose func()
}

// Stats counts pipeline activity.
type Stats struct {
	Pushed          uint64
	Skipped         uint64
	Scheduled       uint64
	Written         uint64
	DroppedDisposed uint64
}

type counters struct {
	pushed          atomic.Uint64
	skipped         atomic.Uint64
	scheduled       atomic.Uint64
	written         atomic.Uint64
	droppedDisposed atomic.Uint64
}

// Pipeline transfers fixed size frames from a single producer to a sink.
// Frames are resized by building a new Pipeline and disposing the old one.
type Pipeline struct {
	width, height  int
	mode           Mode
	trailingFrames int
	srcFormat      PixelFormat
	dstFormat      PixelFormat
	sink           Sink
	sched          Scheduler
	log            *logiface.Logger[logiface.Event]
	onDispose      func()

	producer atomic.Int32
	consumer atomic.Int32

	// frame is owned by the producer stage, out by the consumer stage.
	frame []byte
	out   []byte

	shareMu     lock.SpinLock
	shared      []byte
	previous    []byte
	hasFrame    bool
	hasPrevious bool
	trailing    int

	stats counters
}

// New builds a pipeline for width x height frames.
func New(width, height int, sink Sink, opts Options) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("transfer: %w: %dx%d", ErrInvalidSize, width, height)
	}
	if sink == nil {
		return nil, fmt.Errorf("transfer: %w", ErrNilSink)
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("transfer: %w", ErrNilScheduler)
	}
	trailing := DefaultTrailingFrames
	if opts.TrailingFrames != nil {
		trailing = *opts.TrailingFrames
	}
	if trailing < 0 {
		return nil, fmt.Errorf("transfer: %w: %d", ErrInvalidTrailingFrames, trailing)
	}
	if !opts.SourceFormat.valid() {
		return nil, fmt.Errorf("transfer: source: %w: %d", ErrUnknownFormat, opts.SourceFormat)
	}
	dst := FormatRGBA
	switch {
	case opts.DestFormat != nil:
		dst = *opts.DestFormat
	default:
		if fp, ok := sink.(FormatPreferrer); ok {
			dst = fp.PreferredFormat()
		}
	}
	if !dst.valid() {
		return nil, fmt.Errorf("transfer: destination: %w: %d", ErrUnknownFormat, dst)
	}

	n := width * height * 4
	p := &Pipeline{
		width:          width,
		height:         height,
		mode:           opts.Mode,
		trailingFrames: trailing,
		srcFormat:      opts.SourceFormat,
		dstFormat:      dst,
		sink:           sink,
		sched:          opts.Scheduler,
		log:            opts.Logger,
		onDispose:      opts.OnDispose,
		frame:          make([]byte, n),
		out:            make([]byte, n),
		shared:         make([]byte, n),
	}
	if p.mode == ModeOnChanges {
		p.previous = make([]byte, n)
	}
	p.log.Debug().
		Int("width", width).
		Int("height", height).
		Str("mode", p.mode.String()).
		Str("dest_format", dst.String()).
		Log("transfer pipeline created")
	return p, nil
}

// Size returns the frame dimensions.
func (p *Pipeline) Size() (width, height int) { return p.width, p.height }

// Mode returns the forwarding mode.
func (p *Pipeline) Mode() Mode { return p.mode }

// State returns the producer and consumer stage states.
func (p *Pipeline) State() (producer, consumer State) {
	return State(p.producer.Load()), State(p.consumer.Load())
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Pushed:          p.stats.pushed.Load(),
		Skipped:         p.stats.skipped.Load(),
		Scheduled:       p.stats.scheduled.Load(),
		Written:         p.stats.written.Load(),
		DroppedDisposed: p.stats.droppedDisposed.Load(),
	}
}

// Push reads one frame from src and schedules it for the sink according to
// the pipeline mode. It must not be called concurrently with itself. After
// Dispose it returns without reading src.
func (p *Pipeline) Push(src Source) {
	p.push(src, nil, p.srcFormat)
}

// PushPixels is Push for a raw frame in the given format.
func (p *Pipeline) PushPixels(pix []byte, width, height int, format PixelFormat) error {
	if width != p.width || height != p.height || len(pix) < width*height*4 {
		return fmt.Errorf("transfer: %w: got %dx%d (%d bytes), want %dx%d",
			ErrSizeMismatch, width, height, len(pix), p.width, p.height)
	}
	if !format.valid() {
		return fmt.Errorf("transfer: %w: %d", ErrUnknownFormat, format)
	}
	p.push(nil, pix, format)
	return nil
}

func (p *Pipeline) push(src Source, pix []byte, format PixelFormat) {
	if !p.enter(&p.producer, "producer") {
		return
	}
	defer p.leave(&p.producer, "producer")

	if src != nil {
		src.ReadPixels(p.frame)
	} else {
		copy(p.frame, pix)
	}
	Convert(p.frame, p.frame, format, FormatRGBA)
	p.stats.pushed.Add(1)

	p.shareMu.Lock()
	copy(p.shared, p.frame)
	p.hasFrame = true
	schedule := true
	if p.mode == ModeOnChanges {
		schedule = p.detectChange()
	}
	p.shareMu.Unlock()

	if !schedule {
		p.stats.skipped.Add(1)
		return
	}
	p.stats.scheduled.Add(1)
	p.sched.Submit(p.writeFrame)
}

// detectChange reports whether the shared frame should be forwarded. A
// change arms the trailing counter; each unchanged frame forwarded while it
// is positive consumes one. Called with shareMu held.
func (p *Pipeline) detectChange() bool {
	if !p.hasPrevious || !bytes.Equal(p.shared, p.previous) {
		copy(p.previous, p.shared)
		p.hasPrevious = true
		p.trailing = p.trailingFrames
		return true
	}
	if p.trailing > 0 {
		p.trailing--
		return true
	}
	return false
}

func (p *Pipeline) writeFrame() {
	if !p.enter(&p.consumer, "consumer") {
		return
	}
	defer p.leave(&p.consumer, "consumer")

	p.shareMu.Lock()
	copy(p.out, p.shared)
	p.shareMu.Unlock()

	Convert(p.out, p.out, FormatRGBA, p.dstFormat)
	p.sink.WritePixels(0, 0, p.width, p.height, p.dstFormat, p.out, p.width*4)
	p.stats.written.Add(1)
}

// enter moves a stage from idle to busy. It returns false if the stage is
// being disposed.
func (p *Pipeline) enter(stage *atomic.Int32, name string) bool {
	if stage.CompareAndSwap(int32(StateIdle), int32(StateBusy)) {
		return true
	}
	switch s := State(stage.Load()); s {
	case StateDisposing, StateDisposed:
		p.stats.droppedDisposed.Add(1)
		p.log.Trace().Str("stage", name).Log("transfer dropped after dispose")
		return false
	default:
		panic(fmt.Errorf("transfer: %w: %s stage entered while %s", ErrStateViolation, name, s))
	}
}

func (p *Pipeline) leave(stage *atomic.Int32, name string) {
	if !stage.CompareAndSwap(int32(StateBusy), int32(StateIdle)) {
		panic(fmt.Errorf("transfer: %w: %s stage left while %s",
			ErrStateViolation, name, State(stage.Load())))
	}
}

// Dispose waits for in-flight work on both stages, runs Options.OnDispose
// and releases the frame buffers. Calls after the first return immediately.
// Dispose must not be called from inside the sink or source of this
// pipeline.
func (p *Pipeline) Dispose() {
	if !claim(&p.producer) {
		return
	}
	if !claim(&p.consumer) {
		return
	}
	if p.onDispose != nil {
		p.onDispose()
	}
	p.shareMu.Lock()
	p.frame, p.out, p.shared, p.previous = nil, nil, nil, nil
	p.hasFrame, p.hasPrevious = false, false
	p.shareMu.Unlock()

	p.producer.Store(int32(StateDisposed))
	p.consumer.Store(int32(StateDisposed))
	p.log.Debug().
		Uint64("written", p.stats.written.Load()).
		Uint64("skipped", p.stats.skipped.Load()).
		Log("transfer pipeline disposed")
}

// claim moves a stage from idle to disposing, waiting out a busy stage. It
// returns false if another Dispose got there first.
func claim(stage *atomic.Int32) bool {
	for {
		if stage.CompareAndSwap(int32(StateIdle), int32(StateDisposing)) {
			return true
		}
		switch State(stage.Load()) {
		case StateDisposing, StateDisposed:
			return false
		}
		runtime.Gosched()
	}
}

// Snapshot returns a copy of the most recent frame with premultiplied alpha
// converted to straight alpha. It returns nil before the first push and
// after Dispose.
func (p *Pipeline) Snapshot() *image.NRGBA {
	p.shareMu.Lock()
	defer p.shareMu.Unlock()
	if !p.hasFrame || p.shared == nil {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	unpremultiply(img.Pix, p.shared)
	return img
}

// AlphaAt returns the alpha of the most recent frame at (x, y). ok is false
// outside the frame, before the first push and after Dispose.
func (p *Pipeline) AlphaAt(x, y int) (alpha uint8, ok bool) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, false
	}
	p.shareMu.Lock()
	defer p.shareMu.Unlock()
	if !p.hasFrame || p.shared == nil {
		return 0, false
	}
	return p.shared[(y*p.width+x)*4+3], true
}

func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src) && i+3 < len(dst); i += 4 {
		a := uint32(src[i+3])
		switch a {
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		case 0xff:
			copy(dst[i:i+4], src[i:i+4])
		default:
			for c := range 3 {
				v := (uint32(src[i+c])*0xff + a/2) / a
				dst[i+c] = uint8(min(v, 0xff))
			}
			dst[i+3] = uint8(a)
		}
	}
}
