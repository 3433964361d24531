package willowfx

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func newLoggedBridge(t *testing.T, debug bool) (*Bridge, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "trace")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBridge(t, WithLogger(log))
	b.cfg.Debug = debug
	buf.Reset()
	return b, &buf
}

func TestDebugLogDisabled(t *testing.T) {
	b, buf := newLoggedBridge(t, false)
	b.debugLog(debugStats{renderTime: time.Millisecond})
	b.debugCheckSlowFrame(debugStats{renderTime: time.Second})
	if buf.Len() != 0 {
		t.Errorf("debug output with Debug off: %s", buf.String())
	}
}

func TestDebugLogFrameTimings(t *testing.T) {
	b, buf := newLoggedBridge(t, true)
	b.debugLog(debugStats{renderTime: time.Millisecond, pushTime: time.Millisecond, renderers: 2})
	out := buf.String()
	if !strings.Contains(out, "frame timings") || !strings.Contains(out, `"renderers":2`) {
		t.Errorf("log = %s, want frame timings with renderers", out)
	}
}

func TestDebugCheckSlowFrame(t *testing.T) {
	b, buf := newLoggedBridge(t, true)
	b.debugCheckSlowFrame(debugStats{renderTime: 10 * time.Millisecond})
	if strings.Contains(buf.String(), "slow frame") {
		t.Error("fast frame reported as slow")
	}
	b.debugCheckSlowFrame(debugStats{renderTime: 40 * time.Millisecond, composeTime: 20 * time.Millisecond})
	if !strings.Contains(buf.String(), "slow frame") {
		t.Errorf("log = %s, want a slow frame warning", buf.String())
	}
}
