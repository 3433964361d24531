package willowfx

import (
	"time"
)

// debugStats holds per-frame timings. Only populated when Config.Debug is
// true.
type debugStats struct {
	renderTime  time.Duration
	pushTime    time.Duration
	composeTime time.Duration
	renderers   int
}

// debugLog writes the frame timings at trace level.
func (b *Bridge) debugLog(stats debugStats) {
	if !b.cfg.Debug {
		return
	}
	total := stats.renderTime + stats.pushTime + stats.composeTime
	b.log.Trace().
		Dur("render", stats.renderTime).
		Dur("push", stats.pushTime).
		Dur("compose", stats.composeTime).
		Dur("total", total).
		Int("renderers", stats.renderers).
		Log("frame timings")
}

// debugSlowFrame is the total frame time above which a warning is logged.
const debugSlowFrame = 50 * time.Millisecond

// debugCheckSlowFrame warns when one frame spent longer than debugSlowFrame
// rendering and transferring.
func (b *Bridge) debugCheckSlowFrame(stats debugStats) {
	if !b.cfg.Debug {
		return
	}
	if total := stats.renderTime + stats.pushTime + stats.composeTime; total > debugSlowFrame {
		b.log.Warning().
			Dur("total", total).
			Dur("threshold", debugSlowFrame).
			Log("slow frame")
	}
}
