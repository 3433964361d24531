package transfer

import (
	"bytes"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/willowfx/taskqueue"
)

type recordSink struct {
	writes  [][]byte
	formats []PixelFormat
	onWrite func()
}

func (r *recordSink) WritePixels(x, y, width, height int, format PixelFormat, pix []byte, stride int) {
	r.writes = append(r.writes, bytes.Clone(pix[:height*stride]))
	r.formats = append(r.formats, format)
	if r.onWrite != nil {
		r.onWrite()
	}
}

type bgraSink struct{ recordSink }

func (*bgraSink) PreferredFormat() PixelFormat { return FormatBGRA }

type fifo struct{ tasks []func() }

func (f *fifo) Submit(task func()) { f.tasks = append(f.tasks, task) }

func (f *fifo) run() int {
	tasks := f.tasks
	f.tasks = nil
	for _, t := range tasks {
		t()
	}
	return len(tasks)
}

type solidSource struct{ r, g, b, a byte }

func (s solidSource) ReadPixels(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = s.r, s.g, s.b, s.a
	}
}

func newTestPipeline(t *testing.T, mode Mode, sink Sink, sched Scheduler) *Pipeline {
	t.Helper()
	p, err := New(2, 2, sink, Options{Mode: mode, Scheduler: sched})
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	sink := &recordSink{}
	sched := &fifo{}
	neg := -1
	bad := PixelFormat(42)
	tests := []struct {
		name   string
		w, h   int
		sink   Sink
		opts   Options
		target error
	}{
		{"zero width", 0, 2, sink, Options{Scheduler: sched}, ErrInvalidSize},
		{"negative height", 2, -1, sink, Options{Scheduler: sched}, ErrInvalidSize},
		{"nil sink", 2, 2, nil, Options{Scheduler: sched}, ErrNilSink},
		{"nil scheduler", 2, 2, sink, Options{}, ErrNilScheduler},
		{"negative trailing", 2, 2, sink, Options{Scheduler: sched, TrailingFrames: &neg}, ErrInvalidTrailingFrames},
		{"bad source format", 2, 2, sink, Options{Scheduler: sched, SourceFormat: bad}, ErrUnknownFormat},
		{"bad dest format", 2, 2, sink, Options{Scheduler: sched, DestFormat: &bad}, ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.w, tt.h, tt.sink, tt.opts)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestOnChangesTrailingFrames(t *testing.T) {
	sink := &recordSink{}
	sched := &fifo{}
	p := newTestPipeline(t, ModeOnChanges, sink, sched)

	red := solidSource{0xff, 0, 0, 0xff}
	p.Push(red)
	for range 6 {
		p.Push(red)
	}
	assert.Equal(t, 3, sched.run())
	require.Len(t, sink.writes, 3)

	for range 4 {
		p.Push(red)
	}
	assert.Zero(t, sched.run(), "stable content must not be forwarded")

	blue := solidSource{0, 0, 0xff, 0xff}
	p.Push(blue)
	p.Push(blue)
	p.Push(blue)
	p.Push(blue)
	assert.Equal(t, 3, sched.run())
	require.Len(t, sink.writes, 6)
	assert.Equal(t, []byte{0, 0, 0xff, 0xff}, sink.writes[5][:4])

	st := p.Stats()
	assert.Equal(t, uint64(15), st.Pushed)
	assert.Equal(t, uint64(6), st.Scheduled)
	assert.Equal(t, uint64(9), st.Skipped)
	assert.Equal(t, uint64(6), st.Written)
}

func TestOnChangesConfigurableTrailing(t *testing.T) {
	sink := &recordSink{}
	sched := &fifo{}
	zero := 0
	p, err := New(1, 1, sink, Options{Mode: ModeOnChanges, Scheduler: sched, TrailingFrames: &zero})
	require.NoError(t, err)

	src := solidSource{1, 2, 3, 4}
	for range 5 {
		p.Push(src)
	}
	assert.Equal(t, 1, sched.run())
}

func TestAlwaysWritesEveryPushInOrder(t *testing.T) {
	sink := &recordSink{}
	q := taskqueue.New()
	p := newTestPipeline(t, ModeAlways, sink, q)

	for i := range 5 {
		p.Push(solidSource{byte(i), 0, 0, 0xff})
		require.NoError(t, q.Drain())
	}
	require.Len(t, sink.writes, 5)
	for i, w := range sink.writes {
		assert.Equal(t, byte(i), w[0], "write %d", i)
	}

	p.Push(solidSource{9, 9, 9, 9})
	p.Push(solidSource{9, 9, 9, 9})
	require.NoError(t, q.Drain())
	assert.Len(t, sink.writes, 7)
}

func TestDestinationFormat(t *testing.T) {
	sink := &bgraSink{}
	sched := &fifo{}
	p, err := New(1, 1, sink, Options{Scheduler: sched, SourceFormat: FormatARGB})
	require.NoError(t, err)

	require.NoError(t, p.PushPixels([]byte{0xff, 1, 2, 3}, 1, 1, FormatARGB))
	sched.run()
	require.Len(t, sink.writes, 1)
	assert.Equal(t, FormatBGRA, sink.formats[0])
	assert.Equal(t, []byte{3, 2, 1, 0xff}, sink.writes[0])

	rgba := FormatRGBA
	plain := &bgraSink{}
	p2, err := New(1, 1, plain, Options{Scheduler: sched, DestFormat: &rgba})
	require.NoError(t, err)
	p2.Push(solidSource{1, 2, 3, 4})
	sched.run()
	assert.Equal(t, FormatRGBA, plain.formats[0])
	assert.Equal(t, []byte{1, 2, 3, 4}, plain.writes[0])
}

func TestPushPixelsSizeMismatch(t *testing.T) {
	p := newTestPipeline(t, ModeAlways, &recordSink{}, &fifo{})
	assert.ErrorIs(t, p.PushPixels(make([]byte, 16), 4, 1, FormatRGBA), ErrSizeMismatch)
	assert.ErrorIs(t, p.PushPixels(make([]byte, 8), 2, 2, FormatRGBA), ErrSizeMismatch)
	assert.ErrorIs(t, p.PushPixels(make([]byte, 16), 2, 2, PixelFormat(9)), ErrUnknownFormat)
	assert.NoError(t, p.PushPixels(make([]byte, 16), 2, 2, FormatRGBA))
}

func TestDisposeIdempotent(t *testing.T) {
	sink := &recordSink{}
	sched := &fifo{}
	disposed := 0
	p, err := New(2, 2, sink, Options{Scheduler: sched, OnDispose: func() { disposed++ }})
	require.NoError(t, err)

	p.Push(solidSource{1, 1, 1, 1})
	p.Dispose()
	p.Dispose()
	assert.Equal(t, 1, disposed)

	prod, cons := p.State()
	assert.Equal(t, StateDisposed, prod)
	assert.Equal(t, StateDisposed, cons)

	// the write scheduled before disposal and a push after it are absorbed
	sched.run()
	p.Push(solidSource{2, 2, 2, 2})
	assert.NoError(t, p.PushPixels(make([]byte, 16), 2, 2, FormatRGBA))
	assert.Zero(t, sched.run())
	assert.Empty(t, sink.writes)
	assert.Nil(t, p.Snapshot())

	st := p.Stats()
	assert.Equal(t, uint64(3), st.DroppedDisposed)
	assert.Equal(t, uint64(1), st.Pushed)
}

type gateSource struct {
	entered chan struct{}
	release chan struct{}
}

func (g gateSource) ReadPixels(pix []byte) {
	close(g.entered)
	<-g.release
}

func TestDisposeWaitsForInFlightPush(t *testing.T) {
	p := newTestPipeline(t, ModeAlways, &recordSink{}, &fifo{})
	src := gateSource{entered: make(chan struct{}), release: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Push(src)
	}()
	<-src.entered

	done := make(chan struct{})
	go func() {
		p.Dispose()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("dispose finished while a push was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(src.release)
	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispose never finished")
	}
	prod, _ := p.State()
	assert.Equal(t, StateDisposed, prod)
}

func TestReentrantWriteIsStateViolation(t *testing.T) {
	sink := &recordSink{}
	sched := &fifo{}
	p := newTestPipeline(t, ModeAlways, sink, sched)

	var recovered any
	sink.onWrite = func() {
		defer func() { recovered = recover() }()
		p.writeFrame()
	}
	p.Push(solidSource{1, 1, 1, 1})
	sched.run()

	err, ok := recovered.(error)
	require.True(t, ok, "expected error panic, got %v", recovered)
	assert.True(t, errors.Is(err, ErrStateViolation))
	_, cons := p.State()
	assert.Equal(t, StateIdle, cons)
}

func TestSnapshotUnpremultiplies(t *testing.T) {
	p, err := New(2, 1, &recordSink{}, Options{Scheduler: &fifo{}})
	require.NoError(t, err)
	assert.Nil(t, p.Snapshot())

	require.NoError(t, p.PushPixels([]byte{
		0x40, 0x20, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x00,
	}, 2, 1, FormatRGBA))

	a, ok := p.AlphaAt(0, 0)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x80), a)
	a, ok = p.AlphaAt(1, 0)
	assert.True(t, ok)
	assert.Zero(t, a)
	_, ok = p.AlphaAt(2, 0)
	assert.False(t, ok)

	img := p.Snapshot()
	require.NotNil(t, img)
	assert.Equal(t, color.NRGBA{0x80, 0x40, 0x00, 0x80}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(1, 0))
}

func TestSurfaceAsSinkAndSource(t *testing.T) {
	ui := NewSurface(2, 2, FormatBGRA)
	ui.Fill(10, 20, 30, 0xff)

	target := NewSurface(2, 2, FormatRGBA)
	sched := &fifo{}
	p, err := New(2, 2, target, Options{Scheduler: sched, SourceFormat: ui.PreferredFormat()})
	require.NoError(t, err)

	p.Push(ui)
	sched.run()
	assert.Equal(t, uint64(1), target.Version())
	img := target.Image()
	assert.Equal(t, color.RGBA{10, 20, 30, 0xff}, img.RGBAAt(1, 1))
}

func TestSurfaceWriteClips(t *testing.T) {
	s := NewSurface(2, 2, FormatRGBA)
	block := []byte{
		1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4,
	}
	s.WritePixels(1, 1, 2, 2, FormatRGBA, block, 8)
	img := s.Image()
	assert.Equal(t, color.RGBA{1, 1, 1, 1}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))

	s.WritePixels(-1, 0, 2, 1, FormatRGBA, block, 8)
	assert.Equal(t, color.RGBA{2, 2, 2, 2}, s.Image().RGBAAt(0, 0))

	s.WritePixels(5, 5, 1, 1, FormatRGBA, block, 8)
	assert.Equal(t, uint64(2), s.Version())
}
