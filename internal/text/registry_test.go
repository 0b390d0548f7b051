package text

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryDedup(t *testing.T) {
	r := NewRegistry()
	a := NewStyle(ColorRed)
	b := NewStyle(ColorRed).WithAttributes(AttrBold)

	s1, err := r.RegisterOrGet(a)
	if err != nil || s1 != 0 {
		t.Fatalf("first register = %d, %v", s1, err)
	}
	s2, _ := r.RegisterOrGet(b)
	if s2 != 1 {
		t.Errorf("second register = %d, want 1", s2)
	}
	again, _ := r.RegisterOrGet(NewStyle(ColorFromRGB(255, 0, 0)))
	if again != 0 {
		t.Errorf("equal style got slot %d, want 0", again)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	got, ok := r.Lookup(1)
	if !ok || got != b {
		t.Errorf("Lookup(1) = %v, %v", got, ok)
	}
	if _, ok := r.Lookup(2); ok {
		t.Error("Lookup(2) should fail")
	}
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < MaxStyles; i++ {
		slot, err := r.RegisterOrGet(testStyle(i))
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if slot != i {
			t.Fatalf("slot = %d, want %d", slot, i)
		}
	}
	_, err := r.RegisterOrGet(testStyle(MaxStyles))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("error = %v, want ErrCapacityExceeded", err)
	}
	var ce *CapacityError
	if !errors.As(err, &ce) || ce.Count != MaxStyles {
		t.Errorf("error = %#v", err)
	}
	// Known styles still resolve.
	if slot, err := r.RegisterOrGet(testStyle(3)); err != nil || slot != 3 {
		t.Errorf("existing style = %d, %v", slot, err)
	}
}

func TestRegistryMaskAndResolve(t *testing.T) {
	r := NewRegistry()
	a, b, c := testStyle(1), testStyle(2), testStyle(3)
	mask, err := r.Mask(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if mask != 0b11 {
		t.Errorf("Mask(a,c) = %b, want 11", mask)
	}
	if _, err := r.Mask(b); err != nil {
		t.Fatal(err)
	}
	styles := r.Resolve(0b101)
	if len(styles) != 2 || styles[0] != a || styles[1] != b {
		t.Errorf("Resolve(101) = %v", styles)
	}
	if r.Resolve(0) != nil {
		t.Error("Resolve(0) should be nil")
	}
}

func TestWidthFor(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{32, 32},
		{33, 0},
	}
	for _, tt := range tests {
		if got := WidthFor(tt.count); got != tt.want {
			t.Errorf("WidthFor(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestParseAttribute(t *testing.T) {
	a, err := ParseAttribute(" Bold ")
	if err != nil || a != AttrBold {
		t.Errorf("ParseAttribute(Bold) = %v, %v", a, err)
	}
	if _, err := ParseAttribute("blinking"); err == nil {
		t.Error("expected error for unknown attribute")
	}
	if s := (AttrBold | AttrUnderline).String(); s != "bold+underline" {
		t.Errorf("String() = %q", s)
	}
}

func TestCapacityErrorNamesStyle(t *testing.T) {
	tx := New("acgt")
	err := tx.ensureWidth(testStyle(40), MaxStyles+1)
	var ce *CapacityError
	if !errors.As(err, &ce) || !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("error = %v, want *CapacityError", err)
	}
	if ce.Style != testStyle(40) {
		t.Errorf("Style = %v, want %v", ce.Style, testStyle(40))
	}
	if !strings.Contains(err.Error(), "s40(") {
		t.Errorf("Error() = %q, want the style name", err.Error())
	}
}

func TestStyleMerge(t *testing.T) {
	base := NewStyle(ColorRed).WithAttributes(AttrBold)
	over := DefaultStyle().WithBackground(ColorBlue).WithAttributes(AttrItalic)
	got := base.Merge(over)
	if got.Foreground != ColorRed || got.Background != ColorBlue {
		t.Errorf("Merge colors = %v", got)
	}
	if got.Attributes != AttrBold|AttrItalic {
		t.Errorf("Merge attributes = %v", got.Attributes)
	}
}
