package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STRANDVIEW_"

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader builds a Config from defaults, a TOML file and the environment.
type Loader struct {
	fs        FileSystem
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader reading from the OS file system and environment.
func NewLoader() *Loader {
	return &Loader{fs: OSFS{}, lookupEnv: os.LookupEnv}
}

// NewLoaderWith creates a loader with a custom file system and env lookup.
func NewLoaderWith(fsys FileSystem, lookupEnv func(string) (string, bool)) *Loader {
	if fsys == nil {
		fsys = OSFS{}
	}
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &Loader{fs: fsys, lookupEnv: lookupEnv}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file layer; a path that does
// not exist is an error.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := l.fs.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// decode parses TOML data onto cfg. Unknown keys are rejected.
func decode(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return pe
	}
	return nil
}

// envSetters maps each STRANDVIEW_* variable to the setting it overrides.
var envSetters = map[string]func(c *Config, v string) error{
	"LOG_LEVEL":      func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"LOG_FILE":       func(c *Config, v string) error { c.Logging.File = v; return nil },
	"THEME":          func(c *Config, v string) error { c.Highlight.Theme = v; return nil },
	"RULES":          func(c *Config, v string) error { c.Highlight.Rules = v; return nil },
	"LAYOUT_MODE":    func(c *Config, v string) error { c.Viewport.LayoutMode = v; return nil },
	"GUTTER":         boolSetter(func(c *Config, b bool) { c.Viewport.Gutter = b }),
	"WATCH":          boolSetter(func(c *Config, b bool) { c.Watch.Enabled = b }),
	"CELL_WIDTH":     intSetter(func(c *Config, n int) { c.Viewport.CellWidth = n }),
	"CELL_HEIGHT":    intSetter(func(c *Config, n int) { c.Viewport.CellHeight = n }),
	"MARGIN":         intSetter(func(c *Config, n int) { c.Cache.Margin = n }),
	"SWEEP_INTERVAL": durationSetter(func(c *Config, d time.Duration) { c.Cache.SweepInterval.Duration = d }),
}

// applyEnv applies overrides in a stable order so errors are reproducible.
func (l *Loader) applyEnv(cfg *Config) error {
	names := make([]string, 0, len(envSetters))
	for name := range envSetters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := l.lookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := envSetters[name](cfg, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

func boolSetter(set func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "true", "yes", "on", "1":
			set(c, true)
		case "false", "no", "off", "0":
			set(c, false)
		default:
			return fmt.Errorf("invalid boolean %q", v)
		}
		return nil
	}
}

func intSetter(set func(*Config, int)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		set(c, n)
		return nil
	}
}

func durationSetter(set func(*Config, time.Duration)) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		set(c, d)
		return nil
	}
}
