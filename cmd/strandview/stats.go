package main

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/strandview/internal/config"
	"github.com/dshills/strandview/internal/document"
	"github.com/dshills/strandview/internal/highlight"
	"github.com/dshills/strandview/internal/logging"
)

// loadDocument builds a document for a width x height cell screen, applies
// rules and materializes the first window the way the viewer would.
func loadDocument(content string, cfg *config.Config, rules *highlight.RuleSet, width, height int, log *logging.Logger) (*document.Document, error) {
	opts := document.DefaultOptions()
	opts.Viewport = cfg.LayoutViewport(max(1, width), max(1, height-1))
	opts.Margin = cfg.Cache.Margin
	opts.LayoutMode = cfg.LayoutMode()
	opts.PaddingTopPx = cfg.Viewport.PaddingTop
	opts.Logger = log

	doc, err := document.Load(content, nil, opts)
	if err != nil {
		return nil, err
	}
	if rules != nil {
		if err := highlight.New(rules, cfg.Highlight.Theme, log).Apply(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// statsJSON reports the document's layout, styles and cache counters.
func statsJSON(path string, doc *document.Document) (string, error) {
	st := doc.Stats()

	fields := []struct {
		path  string
		value any
	}{
		{"file", path},
		{"id", st.ID},
		{"text.length", st.TextLen},
		{"text.irregular", st.Irregular},
		{"styles.count", st.Styles},
		{"styles.indexWidth", st.IndexWidth},
		{"layout.charsPerLine", st.Geometry.CharsPerLine},
		{"layout.lineCount", st.Geometry.LineCount},
		{"layout.linesPerWindow", st.Geometry.LinesPerWindow},
		{"layout.gutterPx", st.Geometry.GutterPx},
		{"cache.loaded", st.Cache.Size},
		{"cache.changed", st.Cache.Changed},
		{"cache.loads", st.Cache.Loads},
		{"cache.hits", st.Cache.Hits},
		{"cache.evictions", st.Cache.Evictions},
		{"cache.sweeps", st.Cache.Sweeps},
		{"cache.sweepFaults", st.Cache.SweepFaults},
	}

	out := "{}"
	var err error
	for _, f := range fields {
		out, err = sjson.Set(out, f.path, f.value)
		if err != nil {
			return "", fmt.Errorf("stats field %s: %w", f.path, err)
		}
	}
	for i, s := range doc.Styles() {
		out, err = sjson.Set(out, fmt.Sprintf("styles.names.%d", i), s.Name)
		if err != nil {
			return "", fmt.Errorf("stats style %d: %w", i, err)
		}
	}

	if !gjson.Valid(out) {
		return "", errors.New("stats: produced invalid JSON")
	}
	return out, nil
}
