package willowfx

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger threaded through every component. A nil
// Logger discards everything.
type Logger = logiface.Logger[logiface.Event]

var logLevels = map[string]logiface.Level{
	"trace":   logiface.LevelTrace,
	"debug":   logiface.LevelDebug,
	"info":    logiface.LevelInformational,
	"notice":  logiface.LevelNotice,
	"warning": logiface.LevelWarning,
	"warn":    logiface.LevelWarning,
	"error":   logiface.LevelError,
	"off":     logiface.LevelDisabled,
}

func parseLevel(s string) (logiface.Level, error) {
	lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// NewLogger writes JSON lines to w at the named level (trace, debug, info,
// notice, warning, error or off).
func NewLogger(w io.Writer, level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(lvl),
	).Logger(), nil
}
