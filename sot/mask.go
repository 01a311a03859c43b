package sot

import (
	"math/bits"

	"github.com/pkg/errors"
)

// Mask is a row-major, bit-packed binary image. Bit y*width+x is set when
// pixel (x, y) was classified as target-coloured.
type Mask struct {
	width  int
	height int
	bits   []byte
}

// PackedSize returns the number of bytes needed to pack width*height bits.
func PackedSize(width, height int) int {
	return (width*height + 7) / 8
}

// NewMask allocates an all-clear mask of the given dimensions.
func NewMask(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		panic(errors.Errorf("invalid mask dimensions %dx%d", width, height))
	}
	return &Mask{
		width:  width,
		height: height,
		bits:   make([]byte, PackedSize(width, height)),
	}
}

// NewMaskFromBytes wraps a copy of already packed bits. The length must match
// PackedSize exactly.
func NewMaskFromBytes(width, height int, packed []byte) (*Mask, error) {
	mask := NewMask(width, height)
	if err := mask.Load(packed); err != nil {
		return nil, err
	}
	return mask, nil
}

// Width returns mask's width in pixels
func (mask *Mask) Width() int {
	return mask.width
}

// Height returns mask's height in pixels
func (mask *Mask) Height() int {
	return mask.height
}

func (mask *Mask) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < mask.width && y < mask.height
}

// Get returns the bit at (x, y). Out of range coordinates read as clear.
func (mask *Mask) Get(x, y int) bool {
	if !mask.inside(x, y) {
		return false
	}
	idx := y*mask.width + x
	return (mask.bits[idx>>3]>>(idx&7))&1 == 1
}

// Set writes the bit at (x, y). Out of range coordinates are ignored.
func (mask *Mask) Set(x, y int, value bool) {
	if !mask.inside(x, y) {
		return
	}
	idx := y*mask.width + x
	if value {
		mask.bits[idx>>3] |= 1 << (idx & 7)
	} else {
		mask.bits[idx>>3] &^= 1 << (idx & 7)
	}
}

// Clear zeroes the bit at (x, y)
func (mask *Mask) Clear(x, y int) {
	mask.Set(x, y, false)
}

// Reset clears every bit
func (mask *Mask) Reset() {
	clear(mask.bits)
}

// Load overwrites the mask with packed bits
func (mask *Mask) Load(packed []byte) error {
	if len(packed) != len(mask.bits) {
		return errors.Wrapf(ErrMalformedFrame, "packed mask has %d bytes, expected %d", len(packed), len(mask.bits))
	}
	copy(mask.bits, packed)
	// Padding bits past width*height must stay clear.
	if tail := (mask.width * mask.height) & 7; tail != 0 {
		mask.bits[len(mask.bits)-1] &= byte(1<<tail) - 1
	}
	return nil
}

// Bytes returns a copy of the packed bits. The copy is safe to hand to a
// debug sink while the mask itself is consumed by extraction.
func (mask *Mask) Bytes() []byte {
	out := make([]byte, len(mask.bits))
	copy(out, mask.bits)
	return out
}

// Clone returns a deep copy of the mask
func (mask *Mask) Clone() *Mask {
	return &Mask{
		width:  mask.width,
		height: mask.height,
		bits:   mask.Bytes(),
	}
}

// Count returns the number of set bits
func (mask *Mask) Count() int {
	n := 0
	for _, b := range mask.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Empty reports whether no bit is set
func (mask *Mask) Empty() bool {
	for _, b := range mask.bits {
		if b != 0 {
			return false
		}
	}
	return true
}
