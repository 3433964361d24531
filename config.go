package willowfx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/phanxgames/willowfx/transfer"
)

// Config is the bridge configuration. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// TPS is the render loop tick rate.
	TPS int `toml:"tps"`
	// UITickRate is the UI loop tick rate in Hz.
	UITickRate int `toml:"ui_tick_rate"`

	Transfer TransferConfig `toml:"transfer"`
	Input    InputConfig    `toml:"input"`
	Overlay  OverlayConfig  `toml:"overlay"`

	// HUD draws frame rates and transfer counters in the top-left corner.
	HUD bool `toml:"hud"`
	// Debug logs per-frame timings at trace level.
	Debug       bool   `toml:"debug"`
	SnapshotDir string `toml:"snapshot_dir"`
	LogLevel    string `toml:"log_level"`
}

// TransferConfig configures both frame pipelines.
type TransferConfig struct {
	Mode           transfer.Mode        `toml:"mode"`
	TrailingFrames int                  `toml:"trailing_frames"`
	UIFormat       transfer.PixelFormat `toml:"ui_format"`
}

// InputConfig configures key auto-repeat, in render ticks.
type InputConfig struct {
	RepeatDelay    int `toml:"repeat_delay"`
	RepeatInterval int `toml:"repeat_interval"`
}

// OverlayConfig configures the UI overlay.
type OverlayConfig struct {
	Visible     bool    `toml:"visible"`
	FadeSeconds float64 `toml:"fade_seconds"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Title:      "willowfx",
		Width:      960,
		Height:     540,
		TPS:        60,
		UITickRate: 30,
		Transfer: TransferConfig{
			Mode:           transfer.ModeOnChanges,
			TrailingFrames: transfer.DefaultTrailingFrames,
			UIFormat:       transfer.FormatRGBA,
		},
		Input: InputConfig{
			RepeatDelay:    30,
			RepeatInterval: 3,
		},
		Overlay: OverlayConfig{
			Visible:     true,
			FadeSeconds: 0.25,
		},
		SnapshotDir: "snapshots",
		LogLevel:    "info",
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()
	cfg, err := decodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses TOML on top of DefaultConfig. Unknown keys are errors.
func ParseConfig(data []byte) (Config, error) {
	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.TPS <= 0 {
		errs = append(errs, fmt.Errorf("tps %d must be positive", c.TPS))
	}
	if c.UITickRate <= 0 {
		errs = append(errs, fmt.Errorf("ui_tick_rate %d must be positive", c.UITickRate))
	}
	if c.Transfer.TrailingFrames < 0 {
		errs = append(errs, fmt.Errorf("transfer.trailing_frames %d must not be negative", c.Transfer.TrailingFrames))
	}
	if c.Input.RepeatDelay < 0 || c.Input.RepeatInterval < 0 {
		errs = append(errs, fmt.Errorf("input repeat delay %d and interval %d must not be negative",
			c.Input.RepeatDelay, c.Input.RepeatInterval))
	}
	if c.Overlay.FadeSeconds < 0 {
		errs = append(errs, fmt.Errorf("overlay.fade_seconds %g must not be negative", c.Overlay.FadeSeconds))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
