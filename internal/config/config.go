// Package config loads strandview settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML file
//  3. STRANDVIEW_* environment variables
//
// Example file:
//
//	[viewport]
//	cellWidth = 10
//	cellHeight = 10
//	gutter = true
//	layoutMode = "fixed-point"
//
//	[cache]
//	margin = 10
//	sweepInterval = "1s"
//
//	[highlight]
//	rules = "rules.yaml"
//	theme = "monokai"
//
//	[logging]
//	level = "debug"
//	file = "/tmp/strandview.log"
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/logging"
)

// Config is the complete strandview configuration.
type Config struct {
	Viewport  ViewportConfig  `toml:"viewport"`
	Cache     CacheConfig     `toml:"cache"`
	Highlight HighlightConfig `toml:"highlight"`
	Logging   LoggingConfig   `toml:"logging"`
	Watch     WatchConfig     `toml:"watch"`
}

// ViewportConfig describes the cell grid the text is laid out on.
type ViewportConfig struct {
	// CellWidth and CellHeight are in layout pixels per terminal cell.
	// The gutter padding is fixed in pixels, so 10x10 gives a three-column pad.
	CellWidth  int  `toml:"cellWidth"`
	CellHeight int  `toml:"cellHeight"`
	Gutter     bool `toml:"gutter"`
	Reserved   int  `toml:"reserved"`

	// LayoutMode is "two-pass" or "fixed-point".
	LayoutMode string `toml:"layoutMode"`

	PaddingTop int `toml:"paddingTop"`
}

// CacheConfig controls line eviction.
type CacheConfig struct {
	Margin        int      `toml:"margin"`
	SweepInterval Duration `toml:"sweepInterval"`
}

// HighlightConfig points at the highlighting rules.
type HighlightConfig struct {
	// Rules is a .yaml, .yml, .toml or .lua rule file. Empty disables rules.
	Rules string `toml:"rules"`
	// Theme is a chroma style name used for token-class colours.
	Theme string `toml:"theme"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File receives log output. Empty discards logs while the screen is active.
	File string `toml:"file"`
}

// WatchConfig controls reloading the file when it changes on disk.
type WatchConfig struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Viewport: ViewportConfig{
			CellWidth:  10,
			CellHeight: 10,
			Gutter:     true,
			LayoutMode: "two-pass",
		},
		Cache: CacheConfig{
			Margin:        10,
			SweepInterval: Duration{time.Second},
		},
		Highlight: HighlightConfig{
			Theme: "monokai",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration{100 * time.Millisecond},
		},
	}
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	var errs []string

	if c.Viewport.CellWidth < 1 {
		errs = append(errs, "viewport.cellWidth must be at least 1")
	}
	if c.Viewport.CellHeight < 1 {
		errs = append(errs, "viewport.cellHeight must be at least 1")
	}
	if c.Viewport.Reserved < 0 {
		errs = append(errs, "viewport.reserved must not be negative")
	}
	if _, err := parseLayoutMode(c.Viewport.LayoutMode); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Cache.Margin < 0 {
		errs = append(errs, "cache.margin must not be negative")
	}
	if c.Cache.SweepInterval.Duration <= 0 {
		errs = append(errs, "cache.sweepInterval must be positive")
	}
	if c.Watch.Debounce.Duration < 0 {
		errs = append(errs, "watch.debounce must not be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// LayoutMode returns the configured gutter resolution mode.
func (c *Config) LayoutMode() layout.Mode {
	m, _ := parseLayoutMode(c.Viewport.LayoutMode)
	return m
}

func parseLayoutMode(s string) (layout.Mode, error) {
	switch strings.ToLower(s) {
	case "", "two-pass", "twopass":
		return layout.ModeTwoPass, nil
	case "fixed-point", "fixedpoint":
		return layout.ModeFixedPoint, nil
	default:
		return layout.ModeTwoPass, fmt.Errorf("viewport.layoutMode %q must be two-pass or fixed-point", s)
	}
}

// LayoutViewport returns a layout viewport of width x height cells.
func (c *Config) LayoutViewport(width, height int) layout.Viewport {
	return layout.Viewport{
		WidthPx:      width * c.Viewport.CellWidth,
		HeightPx:     height * c.Viewport.CellHeight,
		CellWidthPx:  c.Viewport.CellWidth,
		CellHeightPx: c.Viewport.CellHeight,
		GutterShown:  c.Viewport.Gutter,
		ReservedPx:   c.Viewport.Reserved,
	}
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	l, _ := logging.ParseLevel(c.Logging.Level)
	return l
}
