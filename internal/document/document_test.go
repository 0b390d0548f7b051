package document

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/logging"
	"github.com/dshills/strandview/internal/text"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Logger = logging.Nop()
	return opts
}

func mustLoad(t *testing.T, s string, opts Options) *Document {
	t.Helper()
	d, err := Load(s, nil, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return d
}

func TestLoad(t *testing.T) {
	d := mustLoad(t, strings.Repeat("a", 1000), testOptions())

	g := d.Geometry()
	if g.CharsPerLine != 79 || g.LineCount != 13 {
		t.Errorf("Geometry() = %+v, want 79 chars, 13 lines", g)
	}
	for i := 0; i < g.LinesPerWindow; i++ {
		if !d.IsLoaded(i) {
			t.Errorf("initial window line %d not loaded", i)
		}
	}
	if d.ID().String() == "" {
		t.Error("document has no ID")
	}
	other := mustLoad(t, "x", testOptions())
	if other.ID() == d.ID() {
		t.Error("documents share an ID")
	}
}

func TestLoadEmpty(t *testing.T) {
	d := mustLoad(t, "", testOptions())

	if d.Geometry().LineCount != 1 {
		t.Fatalf("LineCount = %d, want 1", d.Geometry().LineCount)
	}
	line, err := d.GetLine(0)
	if err != nil {
		t.Fatalf("GetLine(0): %v", err)
	}
	if line.Len() != 0 {
		t.Errorf("line length %d, want 0", line.Len())
	}
	if n, err := d.GetLineLength(0); err != nil || n != 0 {
		t.Errorf("GetLineLength(0) = %d, %v", n, err)
	}
	if s := d.TextAsLines(); s != "" {
		t.Errorf("TextAsLines() = %q, want empty", s)
	}
}

func TestLoadInitialStyles(t *testing.T) {
	red := text.NewStyle(text.ColorRed)
	bold := text.DefaultStyle().WithAttributes(text.AttrBold)
	d, err := Load("acgt", []text.Style{red, bold}, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	styles := d.Styles()
	if len(styles) != 2 || styles[0] != red || styles[1] != bold {
		t.Errorf("Styles() = %v", styles)
	}

	many := make([]text.Style, text.MaxStyles+1)
	for i := range many {
		many[i] = text.NewStyle(text.ColorFromRGB(uint8(i), 0, 0))
	}
	if _, err := Load("acgt", many, testOptions()); !errors.Is(err, text.ErrCapacityExceeded) {
		t.Errorf("Load with 33 styles error = %v", err)
	}
}

func TestLoadWarnsIrregular(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})

	d, err := Load("ac\tgt漢e\u0301", nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if d.Irregular() != 3 {
		t.Errorf("Irregular() = %d, want 3", d.Irregular())
	}
	if !strings.Contains(buf.String(), "3 characters") {
		t.Errorf("missing warning: %q", buf.String())
	}

	plain := mustLoad(t, "acgt", testOptions())
	if plain.Irregular() != 0 {
		t.Errorf("plain Irregular() = %d", plain.Irregular())
	}
}

func TestGetLineLength(t *testing.T) {
	d := mustLoad(t, strings.Repeat("g", 1000), testOptions())

	for i := 0; i < 12; i++ {
		if n, _ := d.GetLineLength(i); n != 79 {
			t.Errorf("GetLineLength(%d) = %d, want 79", i, n)
		}
	}
	if n, _ := d.GetLineLength(12); n != 52 {
		t.Errorf("GetLineLength(12) = %d, want 52", n)
	}
	if _, err := d.GetLineLength(13); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("GetLineLength(13) error = %v", err)
	}
	if d.IsLoaded(12) != (d.Geometry().LinesPerWindow > 12) {
		t.Error("GetLineLength should not load lines")
	}
}

func TestGetLineOutOfRange(t *testing.T) {
	d := mustLoad(t, "abc", testOptions())
	if _, err := d.GetLine(-1); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("GetLine(-1) error = %v", err)
	}
	if _, err := d.GetLine(1); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("GetLine(1) error = %v", err)
	}
}

func TestApplyStyleRefreshesLines(t *testing.T) {
	d := mustLoad(t, "aabaa", testOptions())
	before, _ := d.GetLine(0)

	x := text.NewStyle(text.ColorYellow)
	if err := d.ApplyStyle("aa", x); err != nil {
		t.Fatal(err)
	}

	after, _ := d.GetLine(0)
	if after == before {
		t.Error("ApplyStyle should reload materialized lines")
	}
	want := []uint32{1, 1, 0, 1, 1}
	for i, w := range want {
		if after.Cells[i].Styles != w {
			t.Errorf("cell %d styles %b, want %b", i, after.Cells[i].Styles, w)
		}
	}

	d.ClearStyle(x)
	cleared, _ := d.GetLine(0)
	for i, c := range cleared.Cells {
		if c.Styles != 0 {
			t.Errorf("cell %d styles %b after ClearStyle", i, c.Styles)
		}
	}
}

func TestApplyStyleCapacity(t *testing.T) {
	d := mustLoad(t, "acgt", testOptions())
	for i := 0; i < text.MaxStyles; i++ {
		if err := d.ApplyStyle("a", text.NewStyle(text.ColorFromRGB(uint8(i), 1, 1))); err != nil {
			t.Fatal(err)
		}
	}
	err := d.ApplyStyle("c", text.NewStyle(text.ColorWhite))
	if !errors.Is(err, text.ErrCapacityExceeded) {
		t.Fatalf("error = %v, want ErrCapacityExceeded", err)
	}
	line, _ := d.GetLine(0)
	if line.Cells[0].Styles != 0xFFFFFFFF {
		t.Errorf("previous styles lost: %b", line.Cells[0].Styles)
	}
	if line.Cells[1].Styles != 0 {
		t.Errorf("failed apply wrote %b", line.Cells[1].Styles)
	}
}

func TestOnViewportChanged(t *testing.T) {
	d := mustLoad(t, strings.Repeat("t", 1000), testOptions())

	vp := d.Viewport()
	vp.HeightPx = 300
	if d.OnViewportChanged(vp) {
		t.Error("height-only change should keep the line count")
	}
	if d.Geometry().LinesPerWindow != 13 {
		t.Errorf("LinesPerWindow = %d", d.Geometry().LinesPerWindow)
	}

	vp.WidthPx = 400
	if !d.OnViewportChanged(vp) {
		t.Error("width change should change the line count")
	}
	g := d.Geometry()
	if g.CharsPerLine != 39 || g.LineCount != 26 {
		t.Errorf("Geometry() = %+v", g)
	}
	line, _ := d.GetLine(25)
	if line.Len() != 1000-25*39 {
		t.Errorf("last line length %d, want %d", line.Len(), 1000-25*39)
	}
	if len(d.LineInfos()) < g.LineCount {
		t.Errorf("LineInfos has %d entries, want >= %d", len(d.LineInfos()), g.LineCount)
	}
}

func TestOnViewportChangedSameCountNewWidth(t *testing.T) {
	// 10 chars: width 120 gives 11 per line, width 130 gives 12; both 1 line.
	d := mustLoad(t, "abcdefghij", testOptions())
	vp := layout.Viewport{WidthPx: 130, HeightPx: 100, CellWidthPx: 10, CellHeightPx: 10}
	d.OnViewportChanged(vp)
	first, _ := d.GetLine(0)

	vp.WidthPx = 120
	if d.OnViewportChanged(vp) {
		t.Error("line count should stay at 1")
	}
	second, _ := d.GetLine(0)
	if first == second {
		t.Error("a new line width must reload materialized lines")
	}
}

func TestTickEvictsOutsideWindow(t *testing.T) {
	opts := testOptions()
	opts.Viewport = layout.Viewport{WidthPx: 800, HeightPx: 165, CellWidthPx: 10, CellHeightPx: 15}
	d := mustLoad(t, strings.Repeat("c", 100*79), opts)

	for i := 0; i < d.Geometry().LineCount; i++ {
		if _, err := d.GetLine(i); err != nil {
			t.Fatal(err)
		}
	}

	d.NotifyVisibleRangeChanged(50, 60)
	d.Tick()

	if d.IsLoaded(5) || d.IsLoaded(75) {
		t.Error("lines 5 and 75 should be absent after the sweep")
	}
	for i := 40; i <= 70; i++ {
		if !d.IsLoaded(i) {
			t.Errorf("line %d should stay loaded", i)
		}
	}

	if err := d.MarkChanged(75); err != nil {
		t.Fatal(err)
	}
	d.Tick()
	if !d.IsLoaded(75) {
		t.Error("changed line evicted")
	}
	if err := d.ClearChanged(75); err != nil {
		t.Fatal(err)
	}
	if n := d.Tick(); n != 1 {
		t.Errorf("Tick() = %d, want 1", n)
	}
}

func TestNotifyVisibleRangeClamps(t *testing.T) {
	d := mustLoad(t, strings.Repeat("a", 1000), testOptions())
	d.NotifyVisibleRangeChanged(20, 5)
	start, end := d.VisibleRange()
	if start != 5 || end != 12 {
		t.Errorf("VisibleRange() = %d..%d, want 5..12", start, end)
	}
}

func TestLineInfos(t *testing.T) {
	opts := testOptions()
	opts.PaddingTopPx = 3
	d := mustLoad(t, strings.Repeat("a", 1000), opts)

	infos := d.LineInfos()
	if len(infos) != 13 {
		t.Fatalf("len(LineInfos()) = %d, want 13", len(infos))
	}
	if infos[0].StartY != 3 || infos[2].StartY != 33 {
		t.Errorf("StartY = %d, %d", infos[0].StartY, infos[2].StartY)
	}

	// Wider viewport shrinks the line count; the mirror keeps its entries.
	vp := d.Viewport()
	vp.WidthPx = 1600
	d.OnViewportChanged(vp)
	if len(d.LineInfos()) != 13 {
		t.Errorf("mirror shrank to %d", len(d.LineInfos()))
	}

	// A new cell height rebuilds it.
	vp.CellHeightPx = 20
	d.OnViewportChanged(vp)
	infos = d.LineInfos()
	if len(infos) != d.Geometry().LineCount || infos[1].StartY != 23 {
		t.Errorf("rebuilt mirror = %v", infos)
	}
}

func TestTextAsLines(t *testing.T) {
	opts := testOptions()
	opts.Viewport = layout.Viewport{WidthPx: 50, HeightPx: 100, CellWidthPx: 10, CellHeightPx: 10}
	d := mustLoad(t, "abcdefghij", opts) // 4 chars per line

	if got := d.TextAsLines(); got != "abcd\nefgh\nij\n" {
		t.Errorf("TextAsLines() = %q", got)
	}

	exact := mustLoad(t, "abcdefgh", opts)
	if got := exact.TextAsLines(); got != "abcd\nefgh\n" {
		t.Errorf("TextAsLines() exact = %q", got)
	}
}

func TestStats(t *testing.T) {
	d := mustLoad(t, "acgtacgt", testOptions())
	if err := d.ApplyStyle("cg", text.NewStyle(text.ColorGreen)); err != nil {
		t.Fatal(err)
	}
	s := d.Stats()
	if s.TextLen != 8 || s.Styles != 1 || s.IndexWidth != 8 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.ID != d.ID().String() {
		t.Error("Stats().ID mismatch")
	}
	if s.Cache.LineCount != 1 {
		t.Errorf("Cache.LineCount = %d", s.Cache.LineCount)
	}
}
