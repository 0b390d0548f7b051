// Package highlight turns rule files into styles applied to a document.
//
// A rule names a substring and the style every occurrence receives. Rules are
// read from YAML, TOML or a Lua script; colours are hex strings, basic colour
// names, or a chroma token class resolved through the configured theme.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/strandview/internal/text"
)

// ErrInvalidRule is wrapped by every rule resolution failure.
var ErrInvalidRule = errors.New("invalid rule")

// Rule styles every occurrence of Pattern.
type Rule struct {
	Pattern    string   `yaml:"pattern" toml:"pattern"`
	Name       string   `yaml:"name,omitempty" toml:"name,omitempty"`
	Foreground string   `yaml:"fg,omitempty" toml:"fg,omitempty"`
	Background string   `yaml:"bg,omitempty" toml:"bg,omitempty"`
	Attributes []string `yaml:"attrs,omitempty" toml:"attrs,omitempty"`

	// Token is a chroma token class such as "Keyword" or "LiteralString".
	// Its theme entry supplies any colour or attribute the rule leaves unset.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`
}

// RuleSet is a parsed rule file.
type RuleSet struct {
	// Theme overrides the configured chroma theme when set.
	Theme string `yaml:"theme,omitempty" toml:"theme,omitempty"`
	Rules []Rule `yaml:"rules" toml:"rules"`
}

var namedColors = map[string]text.Color{
	"black":   text.ColorBlack,
	"white":   text.ColorWhite,
	"red":     text.ColorRed,
	"green":   text.ColorGreen,
	"blue":    text.ColorBlue,
	"yellow":  text.ColorYellow,
	"cyan":    text.ColorFromRGB(0, 255, 255),
	"magenta": text.ColorFromRGB(255, 0, 255),
	"orange":  text.ColorFromRGB(255, 165, 0),
	"gray":    text.ColorFromRGB(128, 128, 128),
	"grey":    text.ColorFromRGB(128, 128, 128),
	"default": text.ColorDefault,
}

// ParseColor parses a colour name or a "#rgb"/"#rrggbb" hex string.
// An empty string is the default colour.
func ParseColor(s string) (text.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return text.ColorDefault, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return text.Color{}, fmt.Errorf("%w: colour %q", ErrInvalidRule, s)
	}
	r, g, b := c.RGB255()
	return text.ColorFromRGB(r, g, b), nil
}

// Theme resolves chroma token classes to colours.
type Theme struct {
	name  string
	style *chroma.Style
}

// NewTheme looks up a chroma style by name. Unknown names fall back to
// chroma's default style, as styles.Get does.
func NewTheme(name string) *Theme {
	return &Theme{name: name, style: styles.Get(name)}
}

// Name returns the resolved chroma style name.
func (t *Theme) Name() string {
	return t.style.Name
}

// Token returns the style chroma assigns to a token class name.
func (t *Theme) Token(class string) (text.Style, error) {
	tt, err := chroma.TokenTypeString(class)
	if err != nil {
		return text.Style{}, fmt.Errorf("%w: token class %q", ErrInvalidRule, class)
	}
	entry := t.style.Get(tt)

	s := text.DefaultStyle()
	if entry.Colour.IsSet() {
		s.Foreground = fromChroma(entry.Colour)
	}
	if entry.Background.IsSet() {
		s.Background = fromChroma(entry.Background)
	}
	if entry.Bold == chroma.Yes {
		s.Attributes |= text.AttrBold
	}
	if entry.Italic == chroma.Yes {
		s.Attributes |= text.AttrItalic
	}
	if entry.Underline == chroma.Yes {
		s.Attributes |= text.AttrUnderline
	}
	return s, nil
}

func fromChroma(c chroma.Colour) text.Color {
	return text.ColorFromRGB(c.Red(), c.Green(), c.Blue())
}

// Style resolves the rule to a registrable style.
func (r Rule) Style(theme *Theme) (text.Style, error) {
	if r.Pattern == "" {
		return text.Style{}, fmt.Errorf("%w: empty pattern", ErrInvalidRule)
	}

	s := text.DefaultStyle()
	if r.Token != "" {
		if theme == nil {
			theme = NewTheme("")
		}
		ts, err := theme.Token(r.Token)
		if err != nil {
			return text.Style{}, err
		}
		s = ts
	}

	fg, err := ParseColor(r.Foreground)
	if err != nil {
		return text.Style{}, err
	}
	bg, err := ParseColor(r.Background)
	if err != nil {
		return text.Style{}, err
	}
	var attrs text.Attribute
	for _, name := range r.Attributes {
		a, err := text.ParseAttribute(name)
		if err != nil {
			return text.Style{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		attrs |= a
	}
	s = s.Merge(text.NewStyle(fg).WithBackground(bg).WithAttributes(attrs))

	name := r.Name
	if name == "" {
		name = r.Pattern
	}
	return s.Named(name), nil
}
