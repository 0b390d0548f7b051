// Package text holds a flat, immutable document together with a per-character
// style mask table.
//
// Every character carries a bitmask over the styles known to the document's
// Registry. The mask table starts with 8-bit elements and is widened to 16 and
// then 32 bits as more styles are registered. Widening is one-way.
package text

import (
	"strings"
	"unicode/utf8"
)

// Cell is one character of a line together with its style mask.
type Cell struct {
	Rune   rune
	Styles uint32
}

// Text is an immutable character sequence with mutable per-character styles.
//
// Text is not safe for concurrent use. The character data never changes after
// New; only style masks are written.
type Text struct {
	text   string
	runes  []rune // nil when text is pure ASCII; then byte offset == char offset
	length int

	indexes  indexBuffer
	registry *Registry
}

// New creates a Text over s with an 8-bit style mask table.
func New(s string) *Text {
	t := &Text{
		text:     s,
		registry: NewRegistry(),
	}
	if isASCII(s) {
		t.length = len(s)
	} else {
		t.runes = []rune(s)
		t.length = len(t.runes)
	}
	t.indexes = make(index8, t.length)
	t.registry.onGrow = t.ensureWidth
	return t
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Len returns the number of characters.
func (t *Text) Len() int {
	return t.length
}

// String returns the full text.
func (t *Text) String() string {
	return t.text
}

// Registry returns the style registry that assigns mask bits.
func (t *Text) Registry() *Registry {
	return t.registry
}

// Width returns the current element width of the mask table in bits.
func (t *Text) Width() int {
	return t.indexes.width()
}

// Register registers styles without applying them.
func (t *Text) Register(styles ...Style) error {
	_, err := t.registry.Mask(styles...)
	return err
}

// ensureWidth widens the mask table until it can hold count styles.
// style is the one being registered and only feeds the error.
func (t *Text) ensureWidth(style Style, count int) error {
	want := WidthFor(count)
	if want == 0 {
		return &CapacityError{Style: style, Count: t.registry.Len()}
	}
	for t.indexes.width() < want {
		wider := widen(t.indexes)
		if wider == nil {
			return &CapacityError{Style: style, Count: t.registry.Len()}
		}
		t.indexes = wider
	}
	return nil
}

func (t *Text) runeAt(pos int) rune {
	if t.runes != nil {
		return t.runes[pos]
	}
	return rune(t.text[pos])
}

// StyleIndexAt returns the style mask of the character at pos.
func (t *Text) StyleIndexAt(pos int) (uint32, error) {
	if pos < 0 || pos >= t.length {
		return 0, NewRangeError("styleIndexAt", pos, t.length)
	}
	return t.indexes.get(pos), nil
}

// CopySlice copies up to length cells starting at pos.
// The result is shorter when the text ends first and empty when pos is past the end.
func (t *Text) CopySlice(pos, length int) []Cell {
	if pos < 0 || length <= 0 || pos >= t.length {
		return []Cell{}
	}
	n := min(length, t.length-pos)
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{
			Rune:   t.runeAt(pos + i),
			Styles: t.indexes.get(pos + i),
		}
	}
	return cells
}

// Slice returns up to length characters starting at pos as a string.
func (t *Text) Slice(pos, length int) string {
	if pos < 0 || length <= 0 || pos >= t.length {
		return ""
	}
	end := min(pos+length, t.length)
	if t.runes != nil {
		return string(t.runes[pos:end])
	}
	return t.text[pos:end]
}

// ApplyStyle ORs the mask of styles into every character of every
// non-overlapping occurrence of substring, scanning left to right.
//
// The search is exact and case-sensitive and resumes right after each match.
// Only matches that start and end on character boundaries count. An empty or
// absent substring leaves the text untouched and registers nothing. If a
// style cannot be registered, ErrCapacityExceeded is returned and no mask is
// written.
func (t *Text) ApplyStyle(substring string, styles ...Style) error {
	if substring == "" || len(styles) == 0 {
		return nil
	}
	found := false
	t.occurrences(substring, func(int, int) bool {
		found = true
		return false
	})
	if !found {
		return nil
	}
	mask, err := t.registry.Mask(styles...)
	if err != nil {
		return err
	}
	t.occurrences(substring, func(start, end int) bool {
		t.indexes.or(start, end, mask)
		return true
	})
	return nil
}

// ClearStyle removes style from every character. Unknown styles are ignored.
// The style keeps its slot in the registry.
func (t *Text) ClearStyle(style Style) {
	slot, ok := t.registry.Slot(style)
	if !ok {
		return
	}
	t.indexes.andNot(1 << uint(slot))
}

// occurrences calls fn with the character range [start, end) of every
// non-overlapping occurrence of sub until fn returns false. Byte matches that
// begin or end inside a multi-byte character are skipped.
func (t *Text) occurrences(sub string, fn func(start, end int) bool) {
	bytePos, charPos := 0, 0
	for bytePos < len(t.text) {
		i := strings.Index(t.text[bytePos:], sub)
		if i < 0 {
			return
		}
		start := bytePos + i
		if t.runes == nil {
			if !fn(start, start+len(sub)) {
				return
			}
			bytePos = start + len(sub)
			continue
		}

		b, c := t.advance(bytePos, charPos, start)
		if b != start {
			bytePos, charPos = b, c
			continue
		}
		endB, endC := t.advance(b, c, start+len(sub))
		if endB != start+len(sub) {
			bytePos, charPos = t.advance(b, c, b+1)
			continue
		}
		if !fn(c, endC) {
			return
		}
		bytePos, charPos = endB, endC
	}
}

// advance decodes forward from byte offset b, at character offset c, to the
// first character boundary at or after target.
func (t *Text) advance(b, c, target int) (int, int) {
	for b < target {
		_, size := utf8.DecodeRuneInString(t.text[b:])
		b += size
		c++
	}
	return b, c
}
