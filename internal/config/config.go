// Package config loads keyloop settings.
//
// Settings are layered: built-in defaults, then a TOML or YAML file, then
// KEYLOOP_* environment variables. Command-line flags are applied last by
// the caller. A missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
)

// Backend names.
const (
	BackendXdotool = "xdotool"
	BackendDryRun  = "dryrun"
)

// Config is the complete keyloop configuration.
type Config struct {
	Paths    PathsConfig    `toml:"paths" yaml:"paths"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Capture  CaptureConfig  `toml:"capture" yaml:"capture"`
	Playback PlaybackConfig `toml:"playback" yaml:"playback"`
	Backend  BackendConfig  `toml:"backend" yaml:"backend"`
}

// PathsConfig locates the data directories.
type PathsConfig struct {
	// SequencesDir holds one JSON file per saved sequence.
	SequencesDir string `toml:"sequences_dir" yaml:"sequences_dir"`
	// LogsDir receives keyloop.log. Empty disables the log file.
	LogsDir string `toml:"logs_dir" yaml:"logs_dir"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// CaptureConfig configures recording.
type CaptureConfig struct {
	// StopKey ends a capture. It is never recorded.
	StopKey string `toml:"stop_key" yaml:"stop_key"`
	// Mouse enables mouse reporting from the terminal.
	Mouse bool `toml:"mouse" yaml:"mouse"`
}

// PlaybackConfig holds the default playback options.
type PlaybackConfig struct {
	Speed       float64  `toml:"speed" yaml:"speed"`
	Loop        bool     `toml:"loop" yaml:"loop"`
	LoopCount   int      `toml:"loop_count" yaml:"loop_count"`
	SettleDelay Duration `toml:"settle_delay" yaml:"settle_delay"`
	// StopKey cancels playback when pressed in the controlling terminal.
	StopKey string `toml:"stop_key" yaml:"stop_key"`
}

// BackendConfig selects the simulated-input backend.
type BackendConfig struct {
	Name        string `toml:"name" yaml:"name"`
	XdotoolPath string `toml:"xdotool_path" yaml:"xdotool_path"`
	// FailSafe aborts playback when the pointer reaches the screen origin.
	FailSafe bool `toml:"fail_safe" yaml:"fail_safe"`
	// Display overrides $DISPLAY for the backend.
	Display string `toml:"display" yaml:"display"`
}

// DefaultBaseDir returns the directory holding keyloop data and config.
func DefaultBaseDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "keyloop")
	}
	return ".keyloop"
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultBaseDir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	base := DefaultBaseDir()
	return &Config{
		Paths: PathsConfig{
			SequencesDir: filepath.Join(base, "sequences"),
			LogsDir:      filepath.Join(base, "logs"),
		},
		Logging: LoggingConfig{Level: "info"},
		Capture: CaptureConfig{StopKey: "escape", Mouse: true},
		Playback: PlaybackConfig{
			Speed:       1.0,
			LoopCount:   1,
			SettleDelay: Duration(macro.DefaultSettleDelay),
			StopKey:     "escape",
		},
		Backend: BackendConfig{
			Name:        BackendXdotool,
			XdotoolPath: "xdotool",
			FailSafe:    true,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrValidationFailed}, args...)...))
	}

	if strings.TrimSpace(c.Paths.SequencesDir) == "" {
		add("paths.sequences_dir must not be empty")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if _, err := key.StrokeFromName(c.Capture.StopKey); err != nil {
		add("capture.stop_key: %v", err)
	}
	if _, err := key.StrokeFromName(c.Playback.StopKey); err != nil {
		add("playback.stop_key: %v", err)
	}
	if err := c.PlayOptions().Validate(); err != nil {
		add("playback: %v", err)
	}
	switch c.Backend.Name {
	case BackendXdotool:
		if c.Backend.XdotoolPath == "" {
			add("backend.xdotool_path must not be empty")
		}
	case BackendDryRun:
	default:
		add("backend.name %q is not one of %s, %s", c.Backend.Name, BackendXdotool, BackendDryRun)
	}

	return errors.Join(errs...)
}

// PlayOptions converts the playback section.
func (c *Config) PlayOptions() macro.PlayOptions {
	return macro.PlayOptions{
		Speed:        c.Playback.Speed,
		Looping:      c.Playback.Loop,
		MaxLoopCount: c.Playback.LoopCount,
		SettleDelay:  time.Duration(c.Playback.SettleDelay),
	}
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(c.Logging.Level)
}

// CaptureStopKey returns the stroke that ends a capture.
func (c *Config) CaptureStopKey() key.Stroke {
	s, err := key.StrokeFromName(c.Capture.StopKey)
	if err != nil {
		return key.SpecialStroke(key.KeyEscape)
	}
	return s
}

// PlaybackStopKey returns the stroke that cancels playback.
func (c *Config) PlaybackStopKey() key.Stroke {
	s, err := key.StrokeFromName(c.Playback.StopKey)
	if err != nil {
		return key.SpecialStroke(key.KeyEscape)
	}
	return s
}
