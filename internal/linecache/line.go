package linecache

import (
	"strings"

	"github.com/dshills/strandview/internal/text"
)

// Line is a materialized derived line: a copy of its cells taken from the
// source text when the line was loaded.
type Line struct {
	// Index is the derived line index.
	Index int

	// Cells holds the characters and their style masks.
	Cells []text.Cell

	// changed pins the line against the eviction sweep.
	changed bool
}

// Len returns the number of cells in the line.
func (l *Line) Len() int {
	return len(l.Cells)
}

// Changed reports whether the line is pinned as edited.
func (l *Line) Changed() bool {
	return l.changed
}

// String returns the characters of the line.
func (l *Line) String() string {
	var sb strings.Builder
	sb.Grow(len(l.Cells))
	for _, c := range l.Cells {
		sb.WriteRune(c.Rune)
	}
	return sb.String()
}
