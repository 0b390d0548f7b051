// Package layout derives fixed-width line geometry from viewport dimensions.
//
// Lines here are not newline-delimited: a derived line is a fixed-width slice
// of the flat text. Geometry is a pure function of the viewport, the cell size
// and the text length.
package layout

// Viewport describes the host surface the text is laid out in.
// It is passed by value; layout keeps no reference to the host.
type Viewport struct {
	WidthPx      int
	HeightPx     int
	CellWidthPx  int
	CellHeightPx int

	// GutterShown reserves room for line numbers.
	GutterShown bool

	// ReservedPx is subtracted from the width on the first pass
	// (scrollbar and border). Ignored once the gutter reservation applies.
	ReservedPx int
}

// normalized clamps cell sizes and dimensions to usable values.
func (v Viewport) normalized() Viewport {
	if v.CellWidthPx < 1 {
		v.CellWidthPx = 1
	}
	if v.CellHeightPx < 1 {
		v.CellHeightPx = 1
	}
	if v.WidthPx < 0 {
		v.WidthPx = 0
	}
	if v.HeightPx < 0 {
		v.HeightPx = 0
	}
	if v.ReservedPx < 0 {
		v.ReservedPx = 0
	}
	return v
}

// Geometry is the derived line layout for a document.
type Geometry struct {
	CharsPerLine   int
	LineCount      int
	LinesPerWindow int

	// GutterPx is the width reserved on the pass that produced CharsPerLine.
	GutterPx int
}

// LineRange returns the character range [start, end) covered by line index.
func (g Geometry) LineRange(index, textLen int) (start, end int) {
	start = index * g.CharsPerLine
	end = min(start+g.CharsPerLine, textLen)
	if start > textLen {
		start = textLen
	}
	return start, end
}

// LineLen returns the number of characters in line index.
func (g Geometry) LineLen(index, textLen int) int {
	start, end := g.LineRange(index, textLen)
	return end - start
}

// Mode selects how the gutter reservation is resolved.
type Mode uint8

const (
	// ModeTwoPass recomputes once after sizing the gutter.
	ModeTwoPass Mode = iota

	// ModeFixedPoint repeats until the gutter width stops changing.
	ModeFixedPoint
)

// maxFixedPointPasses bounds ModeFixedPoint. Digit counts can only move by
// one per pass, so a handful of passes always settles or oscillates.
const maxFixedPointPasses = 8

// Compute returns the geometry for a text of textLen characters.
func Compute(textLen int, vp Viewport, mode Mode) Geometry {
	vp = vp.normalized()
	if textLen < 0 {
		textLen = 0
	}

	g := pass(textLen, vp, vp.ReservedPx)
	if !vp.GutterShown {
		return g
	}

	passes := 1
	if mode == ModeFixedPoint {
		passes = maxFixedPointPasses
	}
	for i := 0; i < passes; i++ {
		reserved := GutterWidthPx(g.LineCount, vp.CellWidthPx)
		next := pass(textLen, vp, reserved)
		if next == g {
			break
		}
		g = next
	}
	return g
}

func pass(textLen int, vp Viewport, reserved int) Geometry {
	cpl := (vp.WidthPx-reserved)/vp.CellWidthPx - 1
	if cpl < 1 {
		cpl = 1
	}
	lineCount := textLen/cpl + 1
	return Geometry{
		CharsPerLine:   cpl,
		LineCount:      lineCount,
		LinesPerWindow: min(lineCount, vp.HeightPx/vp.CellHeightPx),
		GutterPx:       reserved,
	}
}

// Policy memoizes the last computed geometry for a document.
type Policy struct {
	mode    Mode
	textLen int

	last    Geometry
	hasLast bool
}

// NewPolicy creates a policy for a text of textLen characters.
func NewPolicy(textLen int, mode Mode) *Policy {
	return &Policy{
		mode:    mode,
		textLen: textLen,
	}
}

// Compute recomputes the geometry for vp.
// It reports whether the line count differs from the previous result; the
// first call always reports a change.
func (p *Policy) Compute(vp Viewport) (Geometry, bool) {
	g := Compute(p.textLen, vp, p.mode)
	changed := !p.hasLast || g.LineCount != p.last.LineCount
	p.last = g
	p.hasLast = true
	return g, changed
}

// Last returns the memoized geometry and whether one exists.
func (p *Policy) Last() (Geometry, bool) {
	return p.last, p.hasLast
}

// Mode returns the gutter resolution mode.
func (p *Policy) Mode() Mode {
	return p.mode
}
