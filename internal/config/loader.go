package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYLOOP_"

// Loader builds a Config from defaults, a file and the environment.
type Loader struct {
	path     string
	readFile func(string) ([]byte, error)
	lookup   func(string) (string, bool)
}

// NewLoader creates a loader for the file at path. An empty path uses
// DefaultPath.
func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultPath()
	}
	return &Loader{
		path:     path,
		readFile: os.ReadFile,
		lookup:   os.LookupEnv,
	}
}

// WithLookup replaces os.LookupEnv.
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	l.lookup = lookup
	return l
}

// Path returns the config file path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the merged, validated configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	if err := l.loadFile(cfg); err != nil {
		return nil, err
	}
	if err := l.loadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes the file over cfg. Keys absent from the file keep their
// current values.
func (l *Loader) loadFile(cfg *Config) error {
	data, err := l.readFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".toml", "":
		if err := toml.Unmarshal(data, cfg); err != nil {
			perr := &ParseError{Path: l.path, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: l.path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, l.path)
	}
	return nil
}

// envSetter applies one variable to cfg.
type envSetter func(cfg *Config, value string) error

// envMapping maps variable names (without prefix) to setters.
var envMapping = map[string]envSetter{
	"SEQUENCES_DIR":     func(c *Config, v string) error { c.Paths.SequencesDir = v; return nil },
	"LOGS_DIR":          func(c *Config, v string) error { c.Paths.LogsDir = v; return nil },
	"LOG_LEVEL":         func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"CAPTURE_STOP_KEY":  func(c *Config, v string) error { c.Capture.StopKey = v; return nil },
	"CAPTURE_MOUSE":     func(c *Config, v string) error { return parseBool(v, &c.Capture.Mouse) },
	"SPEED":             func(c *Config, v string) error { return parseFloat(v, &c.Playback.Speed) },
	"LOOP":              func(c *Config, v string) error { return parseBool(v, &c.Playback.Loop) },
	"LOOP_COUNT":        func(c *Config, v string) error { return parseInt(v, &c.Playback.LoopCount) },
	"SETTLE_DELAY":      func(c *Config, v string) error { return c.Playback.SettleDelay.UnmarshalText([]byte(v)) },
	"PLAYBACK_STOP_KEY": func(c *Config, v string) error { c.Playback.StopKey = v; return nil },
	"BACKEND":           func(c *Config, v string) error { c.Backend.Name = v; return nil },
	"XDOTOOL_PATH":      func(c *Config, v string) error { c.Backend.XdotoolPath = v; return nil },
	"FAIL_SAFE":         func(c *Config, v string) error { return parseBool(v, &c.Backend.FailSafe) },
	"DISPLAY":           func(c *Config, v string) error { c.Backend.Display = v; return nil },
}

// EnvVars returns the supported variable names in sorted order.
func EnvVars() []string {
	names := envNames()
	for i, name := range names {
		names[i] = EnvPrefix + name
	}
	return names
}

func envNames() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadEnv applies overrides in name order so the first error is stable.
func (l *Loader) loadEnv(cfg *Config) error {
	for _, name := range envNames() {
		set := envMapping[name]
		v, ok := l.lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, strings.TrimSpace(v)); err != nil {
			return &ParseError{Path: EnvPrefix + name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func parseBool(s string, dst *bool) error {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

func parseInt(s string, dst *int) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*dst = n
	return nil
}

func parseFloat(s string, dst *float64) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*dst = f
	return nil
}

// Save writes cfg as TOML to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load is a shortcut for NewLoader(path).Load().
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}
