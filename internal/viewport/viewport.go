// Package viewport tracks which derived lines are on screen.
//
// The viewport replaces a back-reference to the host widget: the host reports
// its height in lines and the scroll position, and the viewport answers with
// the visible line range that drives loading and eviction.
package viewport

// Viewport represents the visible portion of the derived lines.
type Viewport struct {
	// First visible line
	topLine int

	// Height in lines (lines per window)
	height int

	// Total derived lines
	lineCount int
}

// New creates a viewport showing height lines of a lineCount-line document.
// Height and line count are clamped to a minimum of 1.
func New(height, lineCount int) *Viewport {
	return &Viewport{
		height:    max(1, height),
		lineCount: max(1, lineCount),
	}
}

// TopLine returns the first visible line.
func (v *Viewport) TopLine() int {
	return v.topLine
}

// Height returns the number of lines per window.
func (v *Viewport) Height() int {
	return v.height
}

// LineCount returns the number of derived lines.
func (v *Viewport) LineCount() int {
	return v.lineCount
}

// BottomLine returns the last visible line.
func (v *Viewport) BottomLine() int {
	return min(v.topLine+v.height, v.lineCount) - 1
}

// VisibleRange returns the inclusive range of visible lines.
func (v *Viewport) VisibleRange() (start, end int) {
	return v.topLine, v.BottomLine()
}

// maxTop is the largest top line that still fills the window.
func (v *Viewport) maxTop() int {
	return max(0, v.lineCount-v.height)
}

func (v *Viewport) clamp() {
	v.topLine = min(max(0, v.topLine), v.maxTop())
}

// Resize updates the height in lines, keeping the top line when possible.
func (v *Viewport) Resize(height int) {
	v.height = max(1, height)
	v.clamp()
}

// SetLineCount updates the number of derived lines after a reflow.
func (v *Viewport) SetLineCount(lineCount int) {
	v.lineCount = max(1, lineCount)
	v.clamp()
}

// ScrollTo scrolls so that line is the top line, clamped to the document.
// It reports whether the top line moved.
func (v *Viewport) ScrollTo(line int) bool {
	prev := v.topLine
	v.topLine = line
	v.clamp()
	return v.topLine != prev
}

// ScrollBy scrolls by a delta number of lines.
func (v *Viewport) ScrollBy(delta int) bool {
	return v.ScrollTo(v.topLine + delta)
}

// PageDown scrolls one window down.
func (v *Viewport) PageDown() bool {
	return v.ScrollBy(v.height)
}

// PageUp scrolls one window up.
func (v *Viewport) PageUp() bool {
	return v.ScrollBy(-v.height)
}

// ScrollToTop scrolls to the first line.
func (v *Viewport) ScrollToTop() bool {
	return v.ScrollTo(0)
}

// ScrollToEnd scrolls so the last line is at the bottom of the window.
func (v *Viewport) ScrollToEnd() bool {
	return v.ScrollTo(v.maxTop())
}

// ScrollFromPixels sets the top line from a vertical scroll offset in pixels.
func (v *Viewport) ScrollFromPixels(offsetPx, cellHeightPx int) bool {
	if cellHeightPx < 1 {
		cellHeightPx = 1
	}
	return v.ScrollTo(offsetPx / cellHeightPx)
}

// EnsureVisible scrolls the minimum amount needed to show line.
func (v *Viewport) EnsureVisible(line int) bool {
	switch {
	case line < v.topLine:
		return v.ScrollTo(line)
	case line > v.BottomLine():
		return v.ScrollTo(line - v.height + 1)
	}
	return false
}

// IsLineVisible returns true if the line is within the viewport.
func (v *Viewport) IsLineVisible(line int) bool {
	return line >= v.topLine && line <= v.BottomLine()
}

// LineToScreenRow converts a line to a screen row.
// Returns -1 if the line is not visible.
func (v *Viewport) LineToScreenRow(line int) int {
	if !v.IsLineVisible(line) {
		return -1
	}
	return line - v.topLine
}

// ScreenRowToLine converts a screen row to a line, clamped to the document.
func (v *Viewport) ScreenRowToLine(row int) int {
	if row < 0 {
		return v.topLine
	}
	return min(v.topLine+row, v.lineCount-1)
}
