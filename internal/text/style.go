package text

import (
	"fmt"
	"strings"
)

// Attribute represents text attributes (bold, italic, etc.).
type Attribute uint8

// Text attribute flags.
const (
	AttrNone          Attribute = 0
	AttrBold          Attribute = 1 << (iota - 1)
	AttrDim                     // Faint/dim text
	AttrItalic                  // Italic text
	AttrUnderline               // Underlined text
	AttrReverse                 // Reverse video (swap fg/bg)
	AttrStrikethrough           // Strikethrough text
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

var attrNames = []struct {
	attr Attribute
	name string
}{
	{AttrBold, "bold"},
	{AttrDim, "dim"},
	{AttrItalic, "italic"},
	{AttrUnderline, "underline"},
	{AttrReverse, "reverse"},
	{AttrStrikethrough, "strikethrough"},
}

// ParseAttribute parses an attribute name such as "bold" or "underline".
func ParseAttribute(name string) (Attribute, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, an := range attrNames {
		if an.name == name {
			return an.attr, nil
		}
	}
	return AttrNone, fmt.Errorf("unknown attribute %q", name)
}

// String lists the set attributes joined by '+'.
func (a Attribute) String() string {
	if a == AttrNone {
		return "none"
	}
	var parts []string
	for _, an := range attrNames {
		if a.Has(an.attr) {
			parts = append(parts, an.name)
		}
	}
	return strings.Join(parts, "+")
}

// Color is a true color or the host's default color.
// The zero value is black; use ColorDefault for "inherit".
type Color struct {
	R, G, B uint8
	// Default indicates the renderer's default color.
	Default bool
}

// ColorDefault represents the renderer's default color.
var ColorDefault = Color{Default: true}

// Common colors.
var (
	ColorBlack  = Color{R: 0, G: 0, B: 0}
	ColorWhite  = Color{R: 255, G: 255, B: 255}
	ColorRed    = Color{R: 255, G: 0, B: 0}
	ColorGreen  = Color{R: 0, G: 255, B: 0}
	ColorBlue   = Color{R: 0, G: 0, B: 255}
	ColorYellow = Color{R: 255, G: 255, B: 0}
)

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// IsDefault returns true if this is the default color.
func (c Color) IsDefault() bool {
	return c.Default
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.Default {
		return "default"
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Style is the visual style applied to a character.
// Styles are comparable values; the registry deduplicates them with ==.
type Style struct {
	Name       string // Optional label, part of the identity
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the style with default colors and no attributes.
func DefaultStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
	}
}

// NewStyle creates a style with the given foreground color.
func NewStyle(fg Color) Style {
	return Style{
		Foreground: fg,
		Background: ColorDefault,
	}
}

// WithBackground returns a new style with the given background color.
func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// WithAttributes returns a new style with the given attributes added.
func (s Style) WithAttributes(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Named returns a copy of the style carrying a label.
func (s Style) Named(name string) Style {
	s.Name = name
	return s
}

// Merge combines two styles.
// The other style takes precedence for non-default colors; attributes are OR'd.
func (s Style) Merge(other Style) Style {
	result := s
	if !other.Foreground.IsDefault() {
		result.Foreground = other.Foreground
	}
	if !other.Background.IsDefault() {
		result.Background = other.Background
	}
	result.Attributes |= other.Attributes
	return result
}

func (s Style) String() string {
	label := s.Name
	if label == "" {
		label = "style"
	}
	return fmt.Sprintf("%s(fg=%s bg=%s %s)", label, s.Foreground, s.Background, s.Attributes)
}
