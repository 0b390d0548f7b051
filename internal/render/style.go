package render

import (
	"math/bits"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/strandview/internal/text"
)

// ResolveStyle combines the styles selected by mask into one.
// Attributes are OR'd; colours of overlapping styles are averaged in Lab
// space, ignoring styles that leave a colour at its default.
func ResolveStyle(mask uint32, styles []text.Style) text.Style {
	out := text.DefaultStyle()
	var fg, bg blend

	for m := mask; m != 0; m &= m - 1 {
		slot := bits.TrailingZeros32(m)
		if slot >= len(styles) {
			break
		}
		s := styles[slot]
		out.Attributes |= s.Attributes
		fg.add(s.Foreground)
		bg.add(s.Background)
	}

	if c, ok := fg.result(); ok {
		out.Foreground = c
	}
	if c, ok := bg.result(); ok {
		out.Background = c
	}
	return out
}

// blend keeps a running Lab mean of the colours added to it.
type blend struct {
	acc colorful.Color
	n   int
}

func (b *blend) add(c text.Color) {
	if c.IsDefault() {
		return
	}
	cc := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	b.n++
	if b.n == 1 {
		b.acc = cc
		return
	}
	b.acc = b.acc.BlendLab(cc, 1/float64(b.n))
}

func (b *blend) result() (text.Color, bool) {
	if b.n == 0 {
		return text.Color{}, false
	}
	r, g, bl := b.acc.Clamped().RGB255()
	return text.ColorFromRGB(r, g, bl), true
}

// ToTcell converts a style to its tcell form.
func ToTcell(s text.Style) tcell.Style {
	style := tcell.StyleDefault

	if !s.Foreground.IsDefault() {
		style = style.Foreground(tcell.NewRGBColor(int32(s.Foreground.R), int32(s.Foreground.G), int32(s.Foreground.B)))
	}
	if !s.Background.IsDefault() {
		style = style.Background(tcell.NewRGBColor(int32(s.Background.R), int32(s.Background.G), int32(s.Background.B)))
	}

	if s.Attributes.Has(text.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attributes.Has(text.AttrDim) {
		style = style.Dim(true)
	}
	if s.Attributes.Has(text.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attributes.Has(text.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attributes.Has(text.AttrReverse) {
		style = style.Reverse(true)
	}
	if s.Attributes.Has(text.AttrStrikethrough) {
		style = style.StrikeThrough(true)
	}
	return style
}
