package highlight

import (
	"fmt"

	"github.com/dshills/strandview/internal/logging"
	"github.com/dshills/strandview/internal/text"
)

// Target receives resolved styles. *document.Document satisfies it.
type Target interface {
	ApplyStyle(substring string, styles ...text.Style) error
}

// Highlighter applies a rule set to documents.
type Highlighter struct {
	theme *Theme
	rules []Rule
	log   *logging.Logger
}

// New resolves the theme for rs. The rule set's own theme wins over
// defaultTheme.
func New(rs *RuleSet, defaultTheme string, log *logging.Logger) *Highlighter {
	if log == nil {
		log = logging.Default()
	}
	name := defaultTheme
	var rules []Rule
	if rs != nil {
		if rs.Theme != "" {
			name = rs.Theme
		}
		rules = rs.Rules
	}
	return &Highlighter{
		theme: NewTheme(name),
		rules: rules,
		log:   log.WithComponent("highlight"),
	}
}

// Theme returns the resolved theme.
func (h *Highlighter) Theme() *Theme {
	return h.theme
}

// Styles resolves every rule without applying it.
func (h *Highlighter) Styles() ([]text.Style, error) {
	out := make([]text.Style, 0, len(h.rules))
	for i, r := range h.rules {
		s, err := r.Style(h.theme)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, r.Pattern, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Apply styles the target with every rule in order. Rules are resolved
// before anything is applied, so a malformed rule leaves the target
// untouched. A capacity failure stops at the failing rule.
func (h *Highlighter) Apply(t Target) error {
	resolved, err := h.Styles()
	if err != nil {
		return err
	}
	for i, s := range resolved {
		if err := t.ApplyStyle(h.rules[i].Pattern, s); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, h.rules[i].Pattern, err)
		}
	}
	h.log.Debug("applied %d rules with theme %s", len(resolved), h.theme.Name())
	return nil
}
