package permission

import "errors"

// Mask is a fixed-width permission bitmask.
type Mask interface {
	// Has reports whether bit is set. With rootReserved, a set root bit
	// (the highest bit) grants every bit.
	Has(bit int, rootReserved bool) bool
	Set(bit int)
	Clear(bit int)
	Width() int
}

// NewMask returns an empty mask of the given width.
func NewMask(maxBits int) (Mask, error) {
	switch maxBits {
	case 64:
		m := Mask64(0)
		return &m, nil
	case 128, 256, 512:
		return &WideMask{words: make([]uint64, maxBits/64)}, nil
	default:
		return nil, errors.New("invalid maxBits")
	}
}

// Mask64 is a single-word mask.
type Mask64 uint64

func (m *Mask64) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit >= 64 {
		return false
	}
	if rootReserved && (*m&(1<<63)) != 0 {
		return true
	}
	return (*m & (1 << bit)) != 0
}

func (m *Mask64) Set(bit int) {
	if bit < 0 || bit >= 64 {
		return
	}
	*m |= 1 << bit
}

func (m *Mask64) Clear(bit int) {
	if bit < 0 || bit >= 64 {
		return
	}
	*m &^= 1 << bit
}

func (m *Mask64) Width() int { return 64 }

// WideMask backs the 128, 256 and 512-bit widths. Word 0 holds bits 0-63;
// the root bit is the highest bit of the last word.
type WideMask struct {
	words []uint64
}

func (m *WideMask) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit >= m.Width() {
		return false
	}
	if rootReserved && m.words[len(m.words)-1]&(1<<63) != 0 {
		return true
	}
	return m.words[bit/64]&(1<<(bit%64)) != 0
}

func (m *WideMask) Set(bit int) {
	if bit < 0 || bit >= m.Width() {
		return
	}
	m.words[bit/64] |= 1 << (bit % 64)
}

func (m *WideMask) Clear(bit int) {
	if bit < 0 || bit >= m.Width() {
		return
	}
	m.words[bit/64] &^= 1 << (bit % 64)
}

func (m *WideMask) Width() int { return len(m.words) * 64 }
