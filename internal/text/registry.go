package text

// MaxStyles is the number of distinct styles a registry can hold.
// Each style owns one bit of a 32-bit style mask.
const MaxStyles = 32

// Index widths in bits, in upgrade order.
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
)

// Registry deduplicates styles and assigns each a stable slot.
// The slot is the bit position of the style in a character's style mask.
//
// Registry is not safe for concurrent use; it is owned by a single Text.
type Registry struct {
	styles []Style
	slots  map[Style]int

	// onGrow is called before a style is appended, with the style and the
	// count it brings the registry to. Text uses it to upgrade its index
	// width before any mask uses the new bit.
	onGrow func(style Style, count int) error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[Style]int),
	}
}

// RegisterOrGet returns the slot of style, registering it if unseen.
// Registering a 33rd distinct style fails with ErrCapacityExceeded.
func (r *Registry) RegisterOrGet(style Style) (int, error) {
	if slot, ok := r.slots[style]; ok {
		return slot, nil
	}
	if len(r.styles) >= MaxStyles {
		return -1, &CapacityError{Style: style, Count: len(r.styles)}
	}
	if r.onGrow != nil {
		if err := r.onGrow(style, len(r.styles)+1); err != nil {
			return -1, err
		}
	}
	slot := len(r.styles)
	r.styles = append(r.styles, style)
	r.slots[style] = slot
	return slot, nil
}

// Slot returns the slot of a registered style.
func (r *Registry) Slot(style Style) (int, bool) {
	slot, ok := r.slots[style]
	return slot, ok
}

// Lookup returns the style registered at slot.
func (r *Registry) Lookup(slot int) (Style, bool) {
	if slot < 0 || slot >= len(r.styles) {
		return Style{}, false
	}
	return r.styles[slot], true
}

// Len returns the number of registered styles.
func (r *Registry) Len() int {
	return len(r.styles)
}

// Styles returns a copy of the registered styles in slot order.
func (r *Registry) Styles() []Style {
	out := make([]Style, len(r.styles))
	copy(out, r.styles)
	return out
}

// Width returns the smallest index width able to hold a mask over every slot.
func (r *Registry) Width() int {
	return WidthFor(len(r.styles))
}

// Mask resolves styles to slots and returns the combined bitmask.
// Styles registered before a failing registration stay registered.
func (r *Registry) Mask(styles ...Style) (uint32, error) {
	var mask uint32
	for _, s := range styles {
		slot, err := r.RegisterOrGet(s)
		if err != nil {
			return 0, err
		}
		mask |= 1 << uint(slot)
	}
	return mask, nil
}

// Resolve expands a mask into the styles whose bits are set, in slot order.
func (r *Registry) Resolve(mask uint32) []Style {
	if mask == 0 {
		return nil
	}
	var out []Style
	for slot, s := range r.styles {
		if mask&(1<<uint(slot)) != 0 {
			out = append(out, s)
		}
	}
	return out
}

// WidthFor returns the smallest of 8, 16 or 32 that is >= count.
// It returns 0 when count exceeds MaxStyles.
func WidthFor(count int) int {
	switch {
	case count <= Width8:
		return Width8
	case count <= Width16:
		return Width16
	case count <= Width32:
		return Width32
	default:
		return 0
	}
}
