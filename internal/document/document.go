// Package document ties the styled text, the layout policy and the line
// window cache together behind the interface a rendering layer consumes.
//
// A Document is owned by one goroutine. The host reports viewport changes and
// the visible line range, asks for lines while painting, and calls Tick from
// its own timer to let the cache drop lines that scrolled away.
package document

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/linecache"
	"github.com/dshills/strandview/internal/logging"
	"github.com/dshills/strandview/internal/text"
)

// DefaultViewport is the geometry assumed until the host reports its own.
var DefaultViewport = layout.Viewport{
	WidthPx:      800,
	HeightPx:     600,
	CellWidthPx:  10,
	CellHeightPx: 15,
}

// Options configures a Document.
type Options struct {
	// Viewport is the initial viewport. Zero means DefaultViewport.
	Viewport layout.Viewport

	// Margin is the number of lines kept on each side of the visible range.
	// Negative means linecache.DefaultMargin.
	Margin int

	// LayoutMode selects how the gutter width is resolved.
	LayoutMode layout.Mode

	// PaddingTopPx offsets every line's Y position in LineInfos.
	PaddingTopPx int

	// Logger receives load, reflow and sweep messages. Nil uses logging.Default().
	Logger *logging.Logger
}

// DefaultOptions returns the default document options.
func DefaultOptions() Options {
	return Options{
		Viewport: DefaultViewport,
		Margin:   linecache.DefaultMargin,
	}
}

// LineInfo is the host-side mirror entry for one derived line.
type LineInfo struct {
	StartY int
}

// Document is a loaded text with its derived line window.
type Document struct {
	id   uuid.UUID
	text *text.Text

	policy *layout.Policy
	vp     layout.Viewport
	geom   layout.Geometry
	cache  *linecache.Cache

	visStart, visEnd int
	margin           int

	paddingTop int
	lineInfos  []LineInfo

	irregular int
	faults    uint64

	log *logging.Logger
}

// Load ingests s, registers initialStyles and loads the initial window.
func Load(s string, initialStyles []text.Style, opts Options) (*Document, error) {
	if opts.Viewport == (layout.Viewport{}) {
		opts.Viewport = DefaultViewport
	}
	if opts.Margin < 0 {
		opts.Margin = linecache.DefaultMargin
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	d := &Document{
		id:         uuid.New(),
		text:       text.New(s),
		margin:     opts.Margin,
		paddingTop: opts.PaddingTopPx,
	}
	d.log = log.WithComponent("document").WithField("doc", d.id.String()[:8])

	if err := d.text.Register(initialStyles...); err != nil {
		return nil, fmt.Errorf("load: registering initial styles: %w", err)
	}

	d.irregular = countIrregular(s)
	if d.irregular > 0 {
		d.log.Warn("%d characters do not occupy exactly one cell; columns may drift", d.irregular)
	}

	d.policy = layout.NewPolicy(d.text.Len(), opts.LayoutMode)
	d.vp = opts.Viewport
	d.geom, _ = d.policy.Compute(d.vp)
	d.cache = linecache.New(d.text, d.geom)
	d.cache.Reload(true)
	d.visStart, d.visEnd = 0, max(0, d.geom.LinesPerWindow-1)
	d.syncLineInfos()

	d.log.Info("loaded %d chars: %d lines of %d chars", d.text.Len(), d.geom.LineCount, d.geom.CharsPerLine)
	return d, nil
}

// countIrregular counts grapheme clusters that are not a single-cell,
// printable character. Fixed-width derived lines assume one cell each.
func countIrregular(s string) int {
	n := 0
	ascii := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			n++
		}
		if c >= 0x80 {
			ascii = false
		}
	}
	if ascii {
		return n
	}

	n = 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		if len(runes) != 1 || g.Width() != 1 {
			n++
		}
	}
	return n
}

// ID returns the document handle.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Text returns the styled text.
func (d *Document) Text() *text.Text {
	return d.text
}

// Styles returns the registered styles in slot order.
func (d *Document) Styles() []text.Style {
	return d.text.Registry().Styles()
}

// Geometry returns the current derived line geometry.
func (d *Document) Geometry() layout.Geometry {
	return d.geom
}

// Viewport returns the viewport the geometry was computed for.
func (d *Document) Viewport() layout.Viewport {
	return d.vp
}

// Irregular returns the number of characters that are not one cell wide.
func (d *Document) Irregular() int {
	return d.irregular
}

// OnViewportChanged recomputes the geometry for vp and resizes the cache.
// It reports whether the derived line count changed, so hosts know to resize
// their own per-line mirrors.
//
// Lines are reloaded when the line count or the line width changes; a change
// that keeps both, such as a height-only resize, keeps the loaded lines.
func (d *Document) OnViewportChanged(vp layout.Viewport) bool {
	prev := d.geom
	g, changed := d.policy.Compute(vp)
	d.vp = vp
	d.geom = g

	d.cache.SetGeometry(g)
	reflow := changed || g.CharsPerLine != prev.CharsPerLine
	d.cache.Reload(reflow)

	d.clampVisible()
	d.syncLineInfos()

	if reflow {
		d.log.Debug("reflow: %d lines of %d chars (was %d of %d)",
			g.LineCount, g.CharsPerLine, prev.LineCount, prev.CharsPerLine)
	}
	return changed
}

// GetLine returns derived line index, materializing it if needed.
func (d *Document) GetLine(index int) (*linecache.Line, error) {
	return d.cache.Get(index)
}

// GetLineLength returns the number of characters in line index.
// It is computed from the geometry and never loads the line.
func (d *Document) GetLineLength(index int) (int, error) {
	if index < 0 || index >= d.geom.LineCount {
		return 0, text.NewRangeError("getLineLength", index, d.geom.LineCount)
	}
	return d.geom.LineLen(index, d.text.Len()), nil
}

// ApplyStyle styles every occurrence of substring and reloads the window so
// painted lines pick up the new masks.
func (d *Document) ApplyStyle(substring string, styles ...text.Style) error {
	if err := d.text.ApplyStyle(substring, styles...); err != nil {
		return fmt.Errorf("apply style to %q: %w", substring, err)
	}
	d.cache.Reload(true)
	return nil
}

// ClearStyle removes style from every character and reloads the window.
func (d *Document) ClearStyle(style text.Style) {
	d.text.ClearStyle(style)
	d.cache.Reload(true)
}

// NotifyVisibleRangeChanged records the inclusive range of visible lines that
// the next Tick keeps loaded.
func (d *Document) NotifyVisibleRangeChanged(start, end int) {
	if end < start {
		start, end = end, start
	}
	d.visStart, d.visEnd = start, end
	d.clampVisible()
}

// VisibleRange returns the range last reported by the host.
func (d *Document) VisibleRange() (start, end int) {
	return d.visStart, d.visEnd
}

func (d *Document) clampVisible() {
	last := d.geom.LineCount - 1
	d.visStart = min(max(0, d.visStart), last)
	d.visEnd = min(max(d.visStart, d.visEnd), last)
}

// Margin returns the eviction margin in lines.
func (d *Document) Margin() int {
	return d.margin
}

// Tick runs one eviction sweep and returns the number of dropped lines.
func (d *Document) Tick() int {
	evicted := d.cache.EvictOutsideWindow(d.visStart, d.visEnd, d.margin)

	stats := d.cache.Stats()
	if stats.SweepFaults != d.faults {
		d.faults = stats.SweepFaults
		d.log.Debug("sweep fault recovered; unchanged lines dropped")
	}
	if evicted > 0 {
		d.log.Debug("unloaded %d lines, %d remain", evicted, stats.Size)
	}
	return evicted
}

// MarkChanged pins line index against eviction.
func (d *Document) MarkChanged(index int) error {
	return d.cache.MarkChanged(index)
}

// ClearChanged unpins line index.
func (d *Document) ClearChanged(index int) error {
	return d.cache.ClearChanged(index)
}

// ClearAllChanged unpins every line.
func (d *Document) ClearAllChanged() {
	d.cache.ClearAllChanged()
}

// IsLoaded reports whether line index is materialized.
func (d *Document) IsLoaded(index int) bool {
	return d.cache.IsLoaded(index)
}

// LineInfos returns the per-line Y positions mirror. It holds at least
// LineCount entries; entries past LineCount are left from larger layouts.
func (d *Document) LineInfos() []LineInfo {
	return d.lineInfos
}

// syncLineInfos grows the mirror to the line count. Existing entries stay
// valid while the cell height and padding are unchanged.
func (d *Document) syncLineInfos() {
	cellHeight := max(1, d.vp.CellHeightPx)
	if len(d.lineInfos) > 0 {
		first := d.lineInfos[0].StartY
		stride := cellHeight
		if len(d.lineInfos) > 1 {
			stride = d.lineInfos[1].StartY - first
		}
		if first != d.paddingTop || stride != cellHeight {
			d.lineInfos = d.lineInfos[:0]
		}
	}
	for i := len(d.lineInfos); i < d.geom.LineCount; i++ {
		d.lineInfos = append(d.lineInfos, LineInfo{StartY: i*cellHeight + d.paddingTop})
	}
}

// WriteLines writes every derived line followed by a newline.
// Lines are sliced straight from the text and never enter the cache.
func (d *Document) WriteLines(w io.Writer) error {
	bw := bufio.NewWriter(w)
	n := d.text.Len()
	for i := 0; i < d.geom.LineCount; i++ {
		start, end := d.geom.LineRange(i, n)
		if start == end {
			break
		}
		if _, err := bw.WriteString(d.text.Slice(start, end-start)); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// TextAsLines returns the text with a line break after every derived line.
func (d *Document) TextAsLines() string {
	var sb strings.Builder
	_ = d.WriteLines(&sb)
	return sb.String()
}

// Stats is a snapshot of the document state.
type Stats struct {
	ID         string
	TextLen    int
	Styles     int
	IndexWidth int
	Irregular  int
	Geometry   layout.Geometry
	Cache      linecache.Stats
}

// Stats returns a snapshot of the document and cache counters.
func (d *Document) Stats() Stats {
	return Stats{
		ID:         d.id.String(),
		TextLen:    d.text.Len(),
		Styles:     d.text.Registry().Len(),
		IndexWidth: d.text.Width(),
		Irregular:  d.irregular,
		Geometry:   d.geom,
		Cache:      d.cache.Stats(),
	}
}
