package willowfx

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
)

// Run opens the window and runs both loops until the window closes, ctx is
// done, or either loop fails. The render loop runs on the calling goroutine,
// which must be the main one; the UI loop runs on its own goroutine. The
// bridge is closed on return.
func Run(ctx context.Context, b *Bridge) error {
	ebiten.SetWindowTitle(b.cfg.Title)
	ebiten.SetWindowSize(b.cfg.Width, b.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(b.cfg.TPS)
	ebiten.SetWindowClosingHandled(true)
	b.windowClosing = ebiten.IsWindowBeingClosed

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.RunUI(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		b.Stop()
		return nil
	})

	b.log.Info().Str("title", b.cfg.Title).Int("tps", b.cfg.TPS).Int("ui_tick_rate", b.cfg.UITickRate).Log("running")
	gameErr := ebiten.RunGame(b)
	cancel()
	uiErr := g.Wait()
	b.Close()
	return errors.Join(gameErr, uiErr)
}
