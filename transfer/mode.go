package transfer

import (
	"fmt"
	"strings"
)

// Mode controls when a pushed frame is forwarded to the sink.
type Mode uint8

const (
	// ModeAlways forwards every pushed frame.
	ModeAlways Mode = iota
	// ModeOnChanges forwards a frame only when its pixels differ from the
	// previous one, plus a few trailing frames after each change.
	ModeOnChanges
)

func (m Mode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeOnChanges:
		return "on_changes"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeAlways, ModeOnChanges:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("transfer: %w: %d", ErrUnknownMode, uint8(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "always":
		*m = ModeAlways
	case "on_changes", "on-changes", "onchanges":
		*m = ModeOnChanges
	default:
		return fmt.Errorf("transfer: %w: %q", ErrUnknownMode, text)
	}
	return nil
}

// State is the lifecycle state of one pipeline stage.
type State int32

const (
	StateIdle State = iota
	StateBusy
	StateDisposing
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateDisposing:
		return "disposing"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
