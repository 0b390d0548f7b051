// Package app runs the terminal viewer: it owns one document and drives it
// from tcell events, a sweep ticker and file change notifications, all on a
// single goroutine.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/strandview/internal/config"
	"github.com/dshills/strandview/internal/document"
	"github.com/dshills/strandview/internal/highlight"
	"github.com/dshills/strandview/internal/layout"
	"github.com/dshills/strandview/internal/logging"
	"github.com/dshills/strandview/internal/render"
	"github.com/dshills/strandview/internal/viewport"
	"github.com/dshills/strandview/internal/watcher"
)

// Options configures the application.
type Options struct {
	// Path is the file being viewed.
	Path string

	// Config supplies layout, cache and watch settings. Nil uses config.Default().
	Config *config.Config

	// Rules are applied to every load of the file. Nil applies nothing.
	Rules *highlight.RuleSet

	Logger *logging.Logger
}

// Application is the viewer.
type Application struct {
	screen  tcell.Screen
	cfg     *config.Config
	path    string
	log     *logging.Logger
	hl      *highlight.Highlighter
	painter *render.Painter

	doc  *document.Document
	view *viewport.Viewport

	// marked is the line pinned by a click, or -1.
	marked int
	press  pressTarget

	running atomic.Bool
	quit    bool
}

// pressTarget records where the held mouse button went down.
type pressTarget uint8

const (
	pressNone pressTarget = iota
	pressText
	pressScrollbar
)

// New creates the application and loads the file. The screen must already be
// initialized.
func New(screen tcell.Screen, opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	app := &Application{
		screen:  screen,
		cfg:     cfg,
		path:    opts.Path,
		log:     log.WithComponent("app"),
		hl:      highlight.New(opts.Rules, cfg.Highlight.Theme, log),
		painter: render.NewPainter(screen, cfg.Viewport.CellWidth),
		marked:  -1,
	}

	content, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, &InitError{Component: "document", Err: err}
	}
	if err := app.load(string(content)); err != nil {
		return nil, &InitError{Component: "document", Err: err}
	}
	return app, nil
}

// Document returns the current document.
func (app *Application) Document() *document.Document {
	return app.doc
}

// View returns the scroll state.
func (app *Application) View() *viewport.Viewport {
	return app.view
}

// layoutViewport returns the layout viewport for the current screen size.
func (app *Application) layoutViewport() (vp layout.Viewport, rows int) {
	w, _ := app.screen.Size()
	rows = app.painter.TextRows()
	return app.cfg.LayoutViewport(w, rows), rows
}

// load replaces the document with content, keeping the top line when the
// new text is long enough.
func (app *Application) load(content string) error {
	vp, rows := app.layoutViewport()

	opts := document.DefaultOptions()
	opts.Viewport = vp
	opts.Margin = app.cfg.Cache.Margin
	opts.LayoutMode = app.cfg.LayoutMode()
	opts.PaddingTopPx = app.cfg.Viewport.PaddingTop
	opts.Logger = app.log

	doc, err := document.Load(content, nil, opts)
	if err != nil {
		return err
	}
	if err := app.hl.Apply(doc); err != nil {
		// Rules that fit are kept; the rest are reported.
		app.log.Warn("highlight %s: %v", app.path, err)
	}

	top := 0
	if app.view != nil {
		top = app.view.TopLine()
	}
	app.doc = doc
	app.view = viewport.New(rows, doc.Geometry().LineCount)
	app.view.ScrollTo(top)
	app.painter.Reset()
	app.syncVisible()
	app.pinMark()
	return nil
}

// syncVisible reports the scroll position to the document.
func (app *Application) syncVisible() {
	app.doc.NotifyVisibleRangeChanged(app.view.VisibleRange())
}

// resize recomputes the geometry after a terminal resize.
func (app *Application) resize() {
	vp, rows := app.layoutViewport()
	if app.doc.OnViewportChanged(vp) {
		app.log.Debug("line count now %d", app.doc.Geometry().LineCount)
	}
	app.view.Resize(rows)
	app.view.SetLineCount(app.doc.Geometry().LineCount)
	app.syncVisible()
	app.pinMark()
}

// Marked returns the marked line, or -1.
func (app *Application) Marked() int {
	return app.marked
}

// pinMark pins the marked line again after the document dropped its lines.
// A mark past the end of the document is cleared.
func (app *Application) pinMark() {
	if app.marked < 0 {
		return
	}
	if app.marked >= app.doc.Geometry().LineCount {
		app.marked = -1
		return
	}
	if err := app.doc.MarkChanged(app.marked); err != nil {
		app.log.Warn("mark line %d: %v", app.marked, err)
		app.marked = -1
	}
}

// toggleMark moves the mark to line, or clears it when line is already
// marked.
func (app *Application) toggleMark(line int) bool {
	if app.marked >= 0 {
		if err := app.doc.ClearChanged(app.marked); err != nil {
			app.log.Debug("unmark line %d: %v", app.marked, err)
		}
	}
	if line == app.marked {
		app.marked = -1
		return true
	}
	app.marked = line
	app.pinMark()
	return true
}

// Run processes events until the user quits or ctx is done. A user quit
// returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	events := make(chan tcell.Event, 64)
	stop := make(chan struct{})
	defer close(stop)
	go app.screen.ChannelEvents(events, stop)

	sweep := time.NewTicker(app.cfg.Cache.SweepInterval.Duration)
	defer sweep.Stop()

	var changes <-chan watcher.Event
	var watchErrs <-chan error
	if app.cfg.Watch.Enabled {
		w, err := watcher.New(app.path, app.cfg.Watch.Debounce.Duration)
		if err != nil {
			app.log.Warn("not watching %s: %v", app.path, err)
		} else {
			defer w.Close()
			changes, watchErrs = w.Events(), w.Errors()
		}
	}

	app.draw()
	for !app.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if app.HandleEvent(ev) {
				app.draw()
			}

		case <-sweep.C:
			if app.doc.Tick() > 0 {
				app.draw()
			}

		case ev, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			app.fileChanged(ev)
			app.draw()

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			app.log.Warn("watch %s: %v", app.path, err)
		}
	}
	return ErrQuit
}

// fileChanged reloads the file after a write. A removed file keeps the
// current document on screen.
func (app *Application) fileChanged(ev watcher.Event) {
	if ev.Op == watcher.OpRemove {
		app.log.Warn("%s was removed; showing the last loaded content", app.path)
		return
	}
	content, err := os.ReadFile(app.path)
	if err != nil {
		app.log.Warn("reload %s: %v", app.path, err)
		return
	}
	if err := app.load(string(content)); err != nil {
		app.log.Error("reload %s: %v", app.path, err)
		return
	}
	app.log.Info("reloaded %s", app.path)
}

// HandleEvent applies one terminal event and reports whether to redraw.
func (app *Application) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		app.screen.Sync()
		app.resize()
		return true

	case *tcell.EventKey:
		return app.handleKey(ev)

	case *tcell.EventMouse:
		return app.handleMouse(ev)
	}
	return false
}

// handleMouse scrolls on the wheel, drags the scrollbar and toggles the
// mark on the clicked text row.
func (app *Application) handleMouse(ev *tcell.EventMouse) bool {
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		return app.scrolled(app.view.ScrollBy(-3))
	case ev.Buttons()&tcell.WheelDown != 0:
		return app.scrolled(app.view.ScrollBy(3))
	case ev.Buttons()&tcell.Button1 == 0:
		app.press = pressNone
		return false
	}

	x, y := ev.Position()
	switch app.press {
	case pressScrollbar:
		return app.scrollbarTo(y)
	case pressText:
		return false
	}

	switch {
	case y >= app.painter.TextRows():
		app.press = pressText
		return false
	case x == app.painter.ScrollbarColumn():
		app.press = pressScrollbar
		return app.scrollbarTo(y)
	}
	app.press = pressText
	line := app.view.ScreenRowToLine(y)
	if line > app.view.BottomLine() {
		return false
	}
	return app.toggleMark(line)
}

// scrollbarTo scrolls to the position of scrollbar row y. The row is mapped
// to a pixel offset over the scrollable range.
func (app *Application) scrollbarTo(y int) bool {
	span := app.view.LineCount() - app.view.Height()
	if span <= 0 {
		return false
	}
	rows := app.painter.TextRows()
	cellHeight := max(1, app.cfg.Viewport.CellHeight)
	y = min(max(0, y), rows-1)

	offsetPx := 0
	if rows > 1 {
		offsetPx = y * span * cellHeight / (rows - 1)
	}
	return app.scrolled(app.view.ScrollFromPixels(offsetPx, cellHeight))
}

func (app *Application) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		app.quit = true
		return false
	case tcell.KeyUp:
		return app.scrolled(app.view.ScrollBy(-1))
	case tcell.KeyDown:
		return app.scrolled(app.view.ScrollBy(1))
	case tcell.KeyPgUp:
		return app.scrolled(app.view.PageUp())
	case tcell.KeyPgDn:
		return app.scrolled(app.view.PageDown())
	case tcell.KeyHome:
		return app.scrolled(app.view.ScrollToTop())
	case tcell.KeyEnd:
		return app.scrolled(app.view.ScrollToEnd())
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			app.quit = true
			return false
		case 'k':
			return app.scrolled(app.view.ScrollBy(-1))
		case 'j':
			return app.scrolled(app.view.ScrollBy(1))
		case 'g':
			return app.scrolled(app.view.ScrollToTop())
		case 'G':
			return app.scrolled(app.view.ScrollToEnd())
		case ' ':
			return app.scrolled(app.view.PageDown())
		case 'm':
			if app.marked < 0 {
				return false
			}
			return app.scrolled(app.view.EnsureVisible(app.marked))
		}
	}
	return false
}

func (app *Application) scrolled(moved bool) bool {
	if moved {
		app.syncVisible()
	}
	return moved
}

// Quit reports whether the user asked to leave.
func (app *Application) Quit() bool {
	return app.quit
}

func (app *Application) draw() {
	if err := app.painter.Paint(app.doc, app.view.TopLine(), app.status()); err != nil {
		app.log.Error("paint: %v", err)
	}
	app.painter.Scrollbar(app.view.TopLine(), app.view.Height(), app.view.LineCount())
	if row := app.view.LineToScreenRow(app.marked); row >= 0 {
		app.painter.MarkRow(row)
	}
	app.screen.Show()
}

func (app *Application) status() string {
	start, end := app.view.VisibleRange()
	st := app.doc.Stats()
	s := fmt.Sprintf(" %s  lines %d-%d of %d  %d chars/line  %d loaded  %d styles",
		filepath.Base(app.path), start+1, end+1, st.Geometry.LineCount,
		st.Geometry.CharsPerLine, st.Cache.Size, st.Styles)
	if app.marked >= 0 {
		s += fmt.Sprintf("  mark %d", app.marked+1)
	}
	return s
}
