// Package linecache materializes derived lines on demand and evicts the ones
// that fall outside the live viewport window.
//
// A line slot is either absent or loaded. Loading copies CharsPerLine cells out
// of the source text; eviction drops the copy. Lines marked changed are
// exempt from the periodic sweep and only go away on a full reload.
//
// Cache is driven by a single owner. It starts no goroutines and holds no
// timer; the host calls EvictOutsideWindow from its own scheduling loop.
package linecache

import (
	"fmt"

	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/text"
)

// ErrOutOfRange is returned for line indexes outside [0, LineCount).
var ErrOutOfRange = text.ErrOutOfRange

// Source provides the cells a line is copied from.
type Source interface {
	// CopySlice copies up to length cells starting at pos, truncated at the
	// end of the text.
	CopySlice(pos, length int) []text.Cell
}

// DefaultMargin is the number of lines kept loaded on each side of the
// visible range.
const DefaultMargin = 10

// Cache maps derived line indexes to materialized lines.
type Cache struct {
	src Source

	charsPerLine   int
	linesPerWindow int

	// lines has one slot per derived line; nil means absent.
	lines []*Line

	// loaded tracks materialized indexes; it only drives eviction.
	loaded map[int]struct{}

	stats Stats

	// sweepHook runs before each index is examined; tests use it to inject faults.
	sweepHook func(index int)
}

// Stats holds cache counters.
type Stats struct {
	Size        int // Loaded lines
	LineCount   int // Derived line slots
	Changed     int // Loaded lines pinned as changed
	Loads       uint64
	Hits        uint64
	Evictions   uint64
	Sweeps      uint64
	SweepFaults uint64
}

// New creates a cache over src laid out with g. No line is loaded.
func New(src Source, g layout.Geometry) *Cache {
	c := &Cache{
		src:    src,
		loaded: make(map[int]struct{}),
	}
	c.SetGeometry(g)
	return c
}

// SetGeometry records the line width and window size and resizes the slot
// table to g.LineCount. Lines loaded under a different width stay until the
// caller reloads.
func (c *Cache) SetGeometry(g layout.Geometry) {
	c.charsPerLine = max(1, g.CharsPerLine)
	c.linesPerWindow = max(0, g.LinesPerWindow)
	c.Resize(g.LineCount)
}

// CharsPerLine returns the width used to slice the source.
func (c *Cache) CharsPerLine() int {
	return c.charsPerLine
}

// LineCount returns the number of derived line slots.
func (c *Cache) LineCount() int {
	return len(c.lines)
}

// Get returns line index, loading it if absent.
// A loaded line is returned as the same instance until it is evicted.
func (c *Cache) Get(index int) (*Line, error) {
	if index < 0 || index >= len(c.lines) {
		return nil, text.NewRangeError("get", index, len(c.lines))
	}
	if line := c.lines[index]; line != nil {
		c.stats.Hits++
		return line, nil
	}
	return c.load(index), nil
}

// load materializes line index. The caller checks bounds.
func (c *Cache) load(index int) *Line {
	line := &Line{
		Index: index,
		Cells: c.src.CopySlice(index*c.charsPerLine, c.charsPerLine),
	}
	c.lines[index] = line
	c.loaded[index] = struct{}{}
	c.stats.Loads++
	return line
}

// IsLoaded reports whether line index is materialized.
func (c *Cache) IsLoaded(index int) bool {
	if index < 0 || index >= len(c.lines) {
		return false
	}
	return c.lines[index] != nil
}

// LineLength returns the cell count of a loaded line and 0 for an absent one.
func (c *Cache) LineLength(index int) (int, error) {
	if index < 0 || index >= len(c.lines) {
		return 0, text.NewRangeError("lineLength", index, len(c.lines))
	}
	if line := c.lines[index]; line != nil {
		return line.Len(), nil
	}
	return 0, nil
}

// LoadedCount returns the number of materialized lines.
func (c *Cache) LoadedCount() int {
	return len(c.loaded)
}

// Resize sets the number of line slots. Shrinking drops every loaded line past
// the new bound, changed lines included; growing appends absent slots.
func (c *Cache) Resize(lineCount int) {
	lineCount = max(0, lineCount)
	switch {
	case lineCount < len(c.lines):
		for idx := range c.loaded {
			if idx >= lineCount {
				delete(c.loaded, idx)
			}
		}
		clear(c.lines[lineCount:])
		c.lines = c.lines[:lineCount]
	case lineCount > len(c.lines):
		c.lines = append(c.lines, make([]*Line, lineCount-len(c.lines))...)
	}
}

// Reload refreshes the cache after a geometry or content change.
// With fullClear every line is dropped, changed ones included, and the
// initial window [0, LinesPerWindow) is loaded again. Without it Reload only
// keeps the bookkeeping consistent with the slot table.
func (c *Cache) Reload(fullClear bool) {
	if !fullClear {
		for idx := range c.loaded {
			if idx >= len(c.lines) || c.lines[idx] == nil {
				delete(c.loaded, idx)
			}
		}
		return
	}

	clear(c.lines)
	clear(c.loaded)
	for i := 0; i < min(c.linesPerWindow, len(c.lines)); i++ {
		c.load(i)
	}
}

// EvictOutsideWindow drops every loaded, unchanged line whose index lies
// outside [start-margin, end+margin] and returns how many were dropped.
//
// The sweep is best effort. Indexes are re-checked against the slot table
// before eviction, and any fault drops every unchanged line instead of
// failing, so the fault only costs a reload of the lines shown next.
func (c *Cache) EvictOutsideWindow(start, end, margin int) (evicted int) {
	c.stats.Sweeps++
	defer func() {
		if r := recover(); r != nil {
			c.stats.SweepFaults++
			c.resetAfterFault()
			evicted = 0
		}
	}()

	margin = max(0, margin)
	lo, hi := start-margin, end+margin
	for idx := range c.loaded {
		if idx < 0 || idx >= len(c.lines) || c.lines[idx] == nil {
			delete(c.loaded, idx)
			continue
		}
		if c.sweepHook != nil {
			c.sweepHook(idx)
		}
		line := c.lines[idx]
		if line.changed {
			continue
		}
		if idx < lo || idx > hi {
			c.lines[idx] = nil
			delete(c.loaded, idx)
			evicted++
		}
	}
	c.stats.Evictions += uint64(evicted)
	return evicted
}

// resetAfterFault rebuilds the loaded set from the slot table. Unchanged
// lines are dropped; changed lines stay loaded and tracked.
func (c *Cache) resetAfterFault() {
	c.loaded = make(map[int]struct{})
	for idx, line := range c.lines {
		switch {
		case line == nil:
		case line.changed:
			c.loaded[idx] = struct{}{}
		default:
			c.lines[idx] = nil
		}
	}
}

// MarkChanged pins line index against the sweep, loading it if absent.
func (c *Cache) MarkChanged(index int) error {
	line, err := c.Get(index)
	if err != nil {
		return fmt.Errorf("mark changed: %w", err)
	}
	line.changed = true
	return nil
}

// ClearChanged unpins line index. Absent lines are ignored.
func (c *Cache) ClearChanged(index int) error {
	if index < 0 || index >= len(c.lines) {
		return text.NewRangeError("clearChanged", index, len(c.lines))
	}
	if line := c.lines[index]; line != nil {
		line.changed = false
	}
	return nil
}

// ClearAllChanged unpins every loaded line.
func (c *Cache) ClearAllChanged() {
	for idx := range c.loaded {
		if idx < len(c.lines) && c.lines[idx] != nil {
			c.lines[idx].changed = false
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Size = len(c.loaded)
	s.LineCount = len(c.lines)
	for idx := range c.loaded {
		if idx < len(c.lines) && c.lines[idx] != nil && c.lines[idx].changed {
			s.Changed++
		}
	}
	return s
}
