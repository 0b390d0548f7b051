// Package render paints a document's visible window onto a tcell screen.
package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/linecache"
	"github.com/dshills/strandview/internal/text"
)

// Source is what the painter reads. *document.Document satisfies it.
type Source interface {
	Geometry() layout.Geometry
	GetLine(index int) (*linecache.Line, error)
	Styles() []text.Style
}

// controlGlyph stands in for characters with no visible form.
const controlGlyph = '·'

const (
	scrollTrack = '│'
	scrollThumb = '┃'
)

// Painter draws derived lines, the line-number gutter and a status row.
type Painter struct {
	screen      tcell.Screen
	cellWidthPx int

	gutterStyle tcell.Style
	statusStyle tcell.Style

	// styles caches mask -> tcell style for the current registry.
	styles     map[uint32]tcell.Style
	styleCount int
}

// NewPainter creates a painter. cellWidthPx converts the gutter width from
// layout pixels to screen columns.
func NewPainter(screen tcell.Screen, cellWidthPx int) *Painter {
	if cellWidthPx < 1 {
		cellWidthPx = 1
	}
	return &Painter{
		screen:      screen,
		cellWidthPx: cellWidthPx,
		gutterStyle: tcell.StyleDefault.Foreground(tcell.ColorGray),
		statusStyle: tcell.StyleDefault.Reverse(true),
		styles:      make(map[uint32]tcell.Style),
	}
}

// Reset drops cached styles. Call it after switching documents.
func (p *Painter) Reset() {
	p.styles = make(map[uint32]tcell.Style)
	p.styleCount = 0
}

// TextRows returns the number of rows available for text.
func (p *Painter) TextRows() int {
	_, h := p.screen.Size()
	return max(1, h-1)
}

// GutterColumns returns the screen columns the gutter covers for g.
func (p *Painter) GutterColumns(g layout.Geometry) int {
	if g.GutterPx == 0 {
		return 0
	}
	return (g.GutterPx + p.cellWidthPx - 1) / p.cellWidthPx
}

// Paint draws lines [top, top+TextRows()) of src and the status text on the
// last row. Lines past the end are cleared. It does not call Show.
func (p *Painter) Paint(src Source, top int, status string) error {
	width, height := p.screen.Size()
	if width <= 0 || height <= 0 {
		return nil
	}

	styles := src.Styles()
	if len(styles) != p.styleCount {
		p.styles = make(map[uint32]tcell.Style)
		p.styleCount = len(styles)
	}

	g := src.Geometry()
	gutter := min(p.GutterColumns(g), width)
	rows := p.TextRows()

	var firstErr error
	for row := 0; row < rows && row < height; row++ {
		idx := top + row
		if idx < 0 || idx >= g.LineCount {
			p.clear(0, row, width, tcell.StyleDefault)
			continue
		}

		x := 0
		if gutter > 0 {
			x = p.drawString(0, row, gutter, layout.LineNumberLabel(idx, g.LineCount), p.gutterStyle)
			p.clear(x, row, gutter-x, tcell.StyleDefault)
			x = gutter
		}

		line, err := src.GetLine(idx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			p.clear(x, row, width-x, tcell.StyleDefault)
			continue
		}
		x = p.drawCells(x, row, width, line.Cells, styles)
		p.clear(x, row, width-x, tcell.StyleDefault)
	}

	if height > rows {
		x := p.drawString(0, height-1, width, status, p.statusStyle)
		p.clear(x, height-1, width-x, p.statusStyle)
	}
	return firstErr
}

// ScrollbarColumn returns the screen column the scrollbar occupies. Text
// never reaches it because the layout keeps one column free.
func (p *Painter) ScrollbarColumn() int {
	w, _ := p.screen.Size()
	return w - 1
}

// Scrollbar draws a thumb for lines [top, top+height) of lineCount in the
// scrollbar column. Nothing is drawn when every line fits.
func (p *Painter) Scrollbar(top, height, lineCount int) {
	rows := p.TextRows()
	x := p.ScrollbarColumn()
	if x < 1 || lineCount <= height {
		return
	}
	start := top * rows / lineCount
	size := max(1, height*rows/lineCount)
	for y := 0; y < rows; y++ {
		r := scrollTrack
		if y >= start && y < start+size {
			r = scrollThumb
		}
		p.screen.SetContent(x, y, r, nil, p.gutterStyle)
	}
}

// MarkRow reverses the text columns of row.
func (p *Painter) MarkRow(row int) {
	if row < 0 || row >= p.TextRows() {
		return
	}
	for x := 0; x < p.ScrollbarColumn(); x++ {
		r, comb, style, _ := p.screen.GetContent(x, row) //nolint:staticcheck // GetContent is the correct API
		p.screen.SetContent(x, row, r, comb, style.Reverse(true))
	}
}

func (p *Painter) drawCells(x, y, width int, cells []text.Cell, styles []text.Style) int {
	for _, c := range cells {
		if x >= width {
			break
		}
		r := c.Rune
		w := uniseg.StringWidth(string(r))
		if w < 1 {
			r, w = controlGlyph, 1
		}
		if x+w > width {
			break
		}
		p.screen.SetContent(x, y, r, nil, p.styleFor(c.Styles, styles))
		x += w
	}
	return x
}

func (p *Painter) styleFor(mask uint32, styles []text.Style) tcell.Style {
	if mask == 0 {
		return tcell.StyleDefault
	}
	if st, ok := p.styles[mask]; ok {
		return st
	}
	st := ToTcell(ResolveStyle(mask, styles))
	p.styles[mask] = st
	return st
}

// drawString draws s clipped to width columns and returns the next column.
func (p *Painter) drawString(x, y, width int, s string, style tcell.Style) int {
	limit := x + width
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if w < 1 {
			continue
		}
		if x+w > limit {
			break
		}
		runes := g.Runes()
		p.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}

func (p *Painter) clear(x, y, n int, style tcell.Style) {
	for i := 0; i < n; i++ {
		p.screen.SetContent(x+i, y, ' ', nil, style)
	}
}
