package willowfx

import (
	"context"
	"fmt"
	"time"

	"github.com/phanxgames/willowfx/transfer"
)

// --- UI loop ---

// SetUISize rebuilds the UI pipeline for width x height UI frames. Call it
// from the UI loop before the first PublishUI and on every UI resize.
func (b *Bridge) SetUISize(width, height int) error {
	if b.closed.Load() {
		return ErrClosed
	}
	p, err := transfer.New(width, height, b.overlay, b.pipelineOptions(b.cfg.Transfer.UIFormat, b.renderQueue, nil))
	if err != nil {
		return fmt.Errorf("ui size: %w", err)
	}

	b.uiMu.SyncLock()
	if b.closed.Load() {
		b.uiMu.SyncUnlock()
		p.Dispose()
		return ErrClosed
	}
	old := b.ui
	b.ui = p
	if old != nil {
		old.Dispose()
	}
	b.uiMu.SyncUnlock()

	b.log.Debug().Int("width", width).Int("height", height).Log("ui resized")
	return nil
}

// PublishUI pushes one UI frame, read from src in the configured UI format,
// towards the overlay. It belongs to the UI loop.
func (b *Bridge) PublishUI(src transfer.Source) error {
	b.uiMu.AsyncLock()
	defer b.uiMu.AsyncUnlock()
	if b.ui == nil {
		return ErrNoUISize
	}
	b.ui.Push(src)
	return nil
}

// RunUI runs the UI loop until ctx is done. Each tick drains the UI queue,
// which delivers scene frames and input, and then calls the handler's Tick.
// A failing task or Tick ends the loop with its error.
func (b *Bridge) RunUI(ctx context.Context) error {
	interval := time.Second / time.Duration(b.cfg.UITickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick, _ := b.handler.(Ticker)
	last := time.Now()
	b.log.Debug().Dur("interval", interval).Log("ui loop started")
	for {
		select {
		case <-ctx.Done():
			b.log.Debug().Log("ui loop stopped")
			return nil
		case now := <-ticker.C:
			if err := b.tickUI(tick, now.Sub(last).Seconds()); err != nil {
				b.log.Err().Err(err).Log("ui loop failed")
				return err
			}
			last = now
		}
	}
}

func (b *Bridge) tickUI(tick Ticker, dt float64) error {
	if err := b.uiQueue.Drain(); err != nil {
		return fmt.Errorf("ui task: %w", err)
	}
	if tick != nil {
		if err := tick.Tick(dt); err != nil {
			return fmt.Errorf("ui tick: %w", err)
		}
	}
	return nil
}
