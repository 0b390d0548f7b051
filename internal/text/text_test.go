package text

import (
	"errors"
	"fmt"
	"testing"
)

func testStyle(n int) Style {
	return NewStyle(ColorFromRGB(uint8(n), uint8(n*3), uint8(n*7))).Named(fmt.Sprintf("s%d", n))
}

func TestNew(t *testing.T) {
	tx := New("acgt")
	if tx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tx.Len())
	}
	if tx.Width() != Width8 {
		t.Errorf("Width() = %d, want 8", tx.Width())
	}
	if tx.Registry().Len() != 0 {
		t.Errorf("Registry().Len() = %d, want 0", tx.Registry().Len())
	}
}

func TestNewEmpty(t *testing.T) {
	tx := New("")
	if tx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tx.Len())
	}
	if cells := tx.CopySlice(0, 10); len(cells) != 0 {
		t.Errorf("CopySlice on empty text returned %d cells", len(cells))
	}
}

func TestApplyStyle(t *testing.T) {
	tx := New("aabaa")
	x := NewStyle(ColorRed)

	if err := tx.ApplyStyle("aa", x); err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}

	slot, ok := tx.Registry().Slot(x)
	if !ok {
		t.Fatal("style not registered")
	}
	bit := uint32(1) << uint(slot)

	want := []bool{true, true, false, true, true}
	for pos, set := range want {
		got, err := tx.StyleIndexAt(pos)
		if err != nil {
			t.Fatalf("StyleIndexAt(%d): %v", pos, err)
		}
		if (got&bit != 0) != set {
			t.Errorf("pos %d: mask %b, want set=%v", pos, got, set)
		}
	}
}

func TestApplyStyleNonOverlapping(t *testing.T) {
	tx := New("aaa")
	x := NewStyle(ColorRed)
	if err := tx.ApplyStyle("aa", x); err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	// Only [0,2) matches; the search resumes at 2 where "a" alone is left.
	want := []uint32{1, 1, 0}
	for pos, w := range want {
		got, _ := tx.StyleIndexAt(pos)
		if got != w {
			t.Errorf("pos %d: mask %b, want %b", pos, got, w)
		}
	}
}

func TestApplyStyleMultiByte(t *testing.T) {
	tx := New("aéaé")
	if err := tx.ApplyStyle("é", NewStyle(ColorRed)); err != nil {
		t.Fatal(err)
	}
	want := []uint32{0, 1, 0, 1}
	for pos, w := range want {
		got, _ := tx.StyleIndexAt(pos)
		if got != w {
			t.Errorf("pos %d: mask %b, want %b", pos, got, w)
		}
	}
}

func TestApplyStyleInsideCharacter(t *testing.T) {
	tests := []struct {
		name string
		text string
		sub  string
	}{
		{"continuation byte", "é", "\xa9"},
		{"leading byte", "é", "\xc3"},
		{"spans characters", "éé", "\xa9\xc3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := New(tt.text)
			if err := tx.ApplyStyle(tt.sub, NewStyle(ColorRed)); err != nil {
				t.Fatalf("ApplyStyle: %v", err)
			}
			if tx.Registry().Len() != 0 {
				t.Errorf("Registry().Len() = %d, want 0", tx.Registry().Len())
			}
			for pos := 0; pos < tx.Len(); pos++ {
				if got, _ := tx.StyleIndexAt(pos); got != 0 {
					t.Errorf("pos %d: mask %b, want 0", pos, got)
				}
			}
		})
	}
}

func TestApplyStyleInvalidByteInText(t *testing.T) {
	// A stray byte is one character of its own and can be matched.
	tx := New("a\xa9bé")
	if tx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tx.Len())
	}
	if err := tx.ApplyStyle("\xa9b", NewStyle(ColorRed)); err != nil {
		t.Fatal(err)
	}
	want := []uint32{0, 1, 1, 0}
	for pos, w := range want {
		got, _ := tx.StyleIndexAt(pos)
		if got != w {
			t.Errorf("pos %d: mask %b, want %b", pos, got, w)
		}
	}
}

func TestApplyStyleOrsMasks(t *testing.T) {
	tx := New("tttaa")
	red := NewStyle(ColorRed)
	bold := DefaultStyle().WithAttributes(AttrBold)

	if err := tx.ApplyStyle("ttt", red); err != nil {
		t.Fatal(err)
	}
	if err := tx.ApplyStyle("ta", bold); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pos  int
		want uint32
	}{
		{0, 0b01},
		{1, 0b01},
		{2, 0b11},
		{3, 0b10},
		{4, 0b00},
	}
	for _, tt := range tests {
		got, _ := tx.StyleIndexAt(tt.pos)
		if got != tt.want {
			t.Errorf("pos %d: mask %b, want %b", tt.pos, got, tt.want)
		}
	}
}

func TestApplyStyleIdempotent(t *testing.T) {
	once := New("gattaca gattaca")
	twice := New("gattaca gattaca")
	styles := []Style{NewStyle(ColorGreen), DefaultStyle().WithAttributes(AttrUnderline)}

	if err := once.ApplyStyle("tac", styles...); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := twice.ApplyStyle("tac", styles...); err != nil {
			t.Fatal(err)
		}
	}
	if twice.Registry().Len() != 2 {
		t.Errorf("registry has %d styles, want 2", twice.Registry().Len())
	}
	for pos := 0; pos < once.Len(); pos++ {
		a, _ := once.StyleIndexAt(pos)
		b, _ := twice.StyleIndexAt(pos)
		if a != b {
			t.Errorf("pos %d: once %b, twice %b", pos, a, b)
		}
	}
}

func TestApplyStyleNoMatch(t *testing.T) {
	tx := New("acgt")
	if err := tx.ApplyStyle("", NewStyle(ColorRed)); err != nil {
		t.Fatal(err)
	}
	if err := tx.ApplyStyle("xyz", NewStyle(ColorRed)); err != nil {
		t.Fatal(err)
	}
	if tx.Registry().Len() != 0 {
		t.Errorf("registry grew to %d on no-op apply", tx.Registry().Len())
	}
	for pos := 0; pos < tx.Len(); pos++ {
		if got, _ := tx.StyleIndexAt(pos); got != 0 {
			t.Errorf("pos %d: mask %b, want 0", pos, got)
		}
	}
}

func TestApplyStyleUnicode(t *testing.T) {
	tx := New("αβγαβ")
	if tx.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", tx.Len())
	}
	if err := tx.ApplyStyle("αβ", NewStyle(ColorBlue)); err != nil {
		t.Fatal(err)
	}
	want := []uint32{1, 1, 0, 1, 1}
	for pos, w := range want {
		got, _ := tx.StyleIndexAt(pos)
		if got != w {
			t.Errorf("pos %d: mask %b, want %b", pos, got, w)
		}
	}
	cells := tx.CopySlice(2, 2)
	if len(cells) != 2 || cells[0].Rune != 'γ' || cells[1].Rune != 'α' {
		t.Errorf("CopySlice(2,2) = %+v", cells)
	}
	if s := tx.Slice(3, 10); s != "αβ" {
		t.Errorf("Slice(3,10) = %q, want αβ", s)
	}
}

func TestStyleIndexAtOutOfRange(t *testing.T) {
	tx := New("abc")
	for _, pos := range []int{-1, 3, 100} {
		_, err := tx.StyleIndexAt(pos)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("StyleIndexAt(%d) error = %v, want ErrOutOfRange", pos, err)
		}
		var re *RangeError
		if !errors.As(err, &re) || re.Index != pos || re.Bound != 3 {
			t.Errorf("StyleIndexAt(%d) error = %#v", pos, err)
		}
	}
}

func TestCopySlice(t *testing.T) {
	tx := New("abcdef")
	tests := []struct {
		name      string
		pos, n    int
		wantRunes string
	}{
		{"middle", 1, 3, "bcd"},
		{"truncated", 4, 10, "ef"},
		{"at end", 6, 2, ""},
		{"past end", 20, 2, ""},
		{"negative", -1, 2, ""},
		{"zero length", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := tx.CopySlice(tt.pos, tt.n)
			got := make([]rune, len(cells))
			for i, c := range cells {
				got[i] = c.Rune
			}
			if string(got) != tt.wantRunes {
				t.Errorf("CopySlice(%d,%d) = %q, want %q", tt.pos, tt.n, string(got), tt.wantRunes)
			}
		})
	}
}

func TestCopySliceIsACopy(t *testing.T) {
	tx := New("aaaa")
	cells := tx.CopySlice(0, 4)
	if err := tx.ApplyStyle("a", NewStyle(ColorRed)); err != nil {
		t.Fatal(err)
	}
	if cells[0].Styles != 0 {
		t.Error("copied cells changed after ApplyStyle")
	}
}

func TestWidthUpgradePreservesMasks(t *testing.T) {
	const doc = "acgtacgtacgtacgtacgtacgtacgtacgtacgt"
	tx := New(doc)

	// Fill the 8-bit table: one style per base, and a few pattern styles.
	patterns := []string{"a", "c", "g", "t", "ac", "cg", "gt", "ta"}
	for i, p := range patterns {
		if err := tx.ApplyStyle(p, testStyle(i)); err != nil {
			t.Fatal(err)
		}
	}
	if tx.Width() != Width8 {
		t.Fatalf("Width() = %d after 8 styles, want 8", tx.Width())
	}

	before := make([]uint32, tx.Len())
	for i := range before {
		before[i], _ = tx.StyleIndexAt(i)
	}

	// The ninth style forces 8 -> 16.
	if err := tx.Register(testStyle(8)); err != nil {
		t.Fatal(err)
	}
	if tx.Width() != Width16 {
		t.Fatalf("Width() = %d after 9 styles, want 16", tx.Width())
	}
	for i, want := range before {
		got, _ := tx.StyleIndexAt(i)
		if got != want {
			t.Errorf("pos %d: mask %b after upgrade, want %b", i, got, want)
		}
	}

	// The new slot is usable.
	if err := tx.ApplyStyle("gtac", testStyle(8)); err != nil {
		t.Fatal(err)
	}
	got, _ := tx.StyleIndexAt(2)
	if got&(1<<8) == 0 {
		t.Errorf("pos 2: mask %b, want bit 8 set", got)
	}
}

func TestWidthUpgradeTo32AndCapacity(t *testing.T) {
	tx := New("xyz")
	for i := 0; i < 16; i++ {
		if err := tx.Register(testStyle(i)); err != nil {
			t.Fatal(err)
		}
	}
	if tx.Width() != Width16 {
		t.Fatalf("Width() = %d after 16 styles, want 16", tx.Width())
	}
	if err := tx.ApplyStyle("y", testStyle(16)); err != nil {
		t.Fatal(err)
	}
	if tx.Width() != Width32 {
		t.Fatalf("Width() = %d after 17 styles, want 32", tx.Width())
	}
	for i := 17; i < MaxStyles; i++ {
		if err := tx.Register(testStyle(i)); err != nil {
			t.Fatalf("register style %d: %v", i, err)
		}
	}
	if err := tx.ApplyStyle("z", testStyle(31)); err != nil {
		t.Fatal(err)
	}
	if got, _ := tx.StyleIndexAt(2); got != 1<<31 {
		t.Errorf("pos 2: mask %b, want bit 31", got)
	}

	err := tx.ApplyStyle("x", testStyle(32))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("33rd style error = %v, want ErrCapacityExceeded", err)
	}
	if tx.Width() != Width32 {
		t.Errorf("Width() = %d, want 32", tx.Width())
	}
	if got, _ := tx.StyleIndexAt(0); got != 0 {
		t.Errorf("failed apply wrote mask %b", got)
	}
	if got, _ := tx.StyleIndexAt(1); got != 1<<16 {
		t.Errorf("earlier style lost: mask %b", got)
	}
}

func TestApplyStylePartialRegistration(t *testing.T) {
	tx := New("ab")
	for i := 0; i < MaxStyles-1; i++ {
		if err := tx.Register(testStyle(i)); err != nil {
			t.Fatal(err)
		}
	}
	err := tx.ApplyStyle("a", testStyle(100), testStyle(101))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("error = %v, want ErrCapacityExceeded", err)
	}
	if _, ok := tx.Registry().Slot(testStyle(100)); !ok {
		t.Error("style registered before the failure should stay registered")
	}
	if got, _ := tx.StyleIndexAt(0); got != 0 {
		t.Errorf("mask %b written despite failure", got)
	}
}

func TestClearStyle(t *testing.T) {
	tx := New("aacc")
	red := NewStyle(ColorRed)
	blue := NewStyle(ColorBlue)
	if err := tx.ApplyStyle("a", red); err != nil {
		t.Fatal(err)
	}
	if err := tx.ApplyStyle("ac", blue); err != nil {
		t.Fatal(err)
	}

	tx.ClearStyle(red)
	tx.ClearStyle(NewStyle(ColorGreen)) // unknown, ignored

	want := []uint32{0b00, 0b10, 0b10, 0b00}
	for pos, w := range want {
		got, _ := tx.StyleIndexAt(pos)
		if got != w {
			t.Errorf("pos %d: mask %b, want %b", pos, got, w)
		}
	}
	if _, ok := tx.Registry().Slot(red); !ok {
		t.Error("cleared style should keep its slot")
	}
}
