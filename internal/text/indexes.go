package text

// indexBuffer is a per-character style mask array of a fixed element width.
type indexBuffer interface {
	get(i int) uint32
	or(from, to int, mask uint32)
	andNot(mask uint32)
	len() int
	width() int
}

type index8 []uint8

func (b index8) get(i int) uint32 { return uint32(b[i]) }
func (b index8) len() int         { return len(b) }
func (b index8) width() int       { return Width8 }

func (b index8) or(from, to int, mask uint32) {
	m := uint8(mask)
	for i := from; i < to; i++ {
		b[i] |= m
	}
}

func (b index8) andNot(mask uint32) {
	m := uint8(mask)
	for i := range b {
		b[i] &^= m
	}
}

type index16 []uint16

func (b index16) get(i int) uint32 { return uint32(b[i]) }
func (b index16) len() int         { return len(b) }
func (b index16) width() int       { return Width16 }

func (b index16) or(from, to int, mask uint32) {
	m := uint16(mask)
	for i := from; i < to; i++ {
		b[i] |= m
	}
}

func (b index16) andNot(mask uint32) {
	m := uint16(mask)
	for i := range b {
		b[i] &^= m
	}
}

type index32 []uint32

func (b index32) get(i int) uint32 { return b[i] }
func (b index32) len() int         { return len(b) }
func (b index32) width() int       { return Width32 }

func (b index32) or(from, to int, mask uint32) {
	for i := from; i < to; i++ {
		b[i] |= mask
	}
}

func (b index32) andNot(mask uint32) {
	for i := range b {
		b[i] &^= mask
	}
}

// widen reallocates b at the next width, zero-extending every value.
// It returns nil if b is already 32 bits wide.
func widen(b indexBuffer) indexBuffer {
	switch src := b.(type) {
	case index8:
		dst := make(index16, len(src))
		for i, v := range src {
			dst[i] = uint16(v)
		}
		return dst
	case index16:
		dst := make(index32, len(src))
		for i, v := range src {
			dst[i] = uint32(v)
		}
		return dst
	default:
		return nil
	}
}
